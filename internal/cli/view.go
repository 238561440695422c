package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelshare/pkg/transport"
)

// viewCommand creates the view command.
func (c *CLI) viewCommand() *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "view <file|token|url>",
		Short: "Show a drawing in the terminal",
		Long: `Show a drawing from a JSON file, a share token or a share URL.

The viewer pans with the arrow keys when the canvas is larger than the
terminal. Use --print to write the drawing once and exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := c.codecFor(transport.CompressorGzip)
			if err != nil {
				return err
			}
			doc, format, err := c.loadDrawing(tc, args[0])
			if err != nil {
				return err
			}
			if format != "" {
				c.Logger.Debug("Decoded share token", "format", format)
			}

			if printOnly {
				_, err := fmt.Fprintln(c.stdout, renderDrawing(doc))
				return err
			}

			p := tea.NewProgram(NewViewerModel(doc, "pixelshare"), tea.WithContext(cmd.Context()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the drawing and exit")

	return cmd
}
