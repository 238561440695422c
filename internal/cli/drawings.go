package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelshare/pkg/api"
	"github.com/matzehuels/pixelshare/pkg/client"
	"github.com/matzehuels/pixelshare/pkg/codec"
	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/preview"
)

// drawingsCommand creates the drawings command with subcommands. They all
// talk to a server with the session saved by login.
func (c *CLI) drawingsCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:     "drawings",
		Aliases: []string{"d"},
		Short:   "Manage drawings saved on a pixelshare server",
	}

	addServerFlag(cmd, &server)

	cmd.AddCommand(c.drawingsListCommand(&server))
	cmd.AddCommand(c.drawingsPushCommand(&server))
	cmd.AddCommand(c.drawingsPullCommand(&server))
	cmd.AddCommand(c.drawingsDeleteCommand(&server))
	cmd.AddCommand(c.drawingsShareCommand(&server))
	cmd.AddCommand(c.drawingsPreviewCommand(&server))

	return cmd
}

// withClient runs fn with an authenticated client under the request timeout.
func (c *CLI) withClient(cmd *cobra.Command, server string, fn func(context.Context, *client.Client) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	cl, _, err := c.apiClient(ctx, server)
	if err != nil {
		return err
	}
	return fn(ctx, cl)
}

func (c *CLI) drawingsListCommand(server *string) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your drawings, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd, *server, func(ctx context.Context, cl *client.Client) error {
				list, err := cl.List(ctx)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No drawings yet")
					printNextStep("Upload one", appName+" drawings push drawing.json")
					return nil
				}
				fmt.Fprintln(c.stdout, drawingTable(list))
				return nil
			})
		},
	}
}

// drawingTable formats list entries with their settings decoded from the
// compact form.
func drawingTable(list []api.DrawingSummary) string {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		pattern, size, cells := "?", "?", "?"
		if d, err := codec.Unmarshal(s.Drawing); err == nil {
			pattern = string(d.Pattern)
			size = fmt.Sprintf("%dx%d", d.CanvasWidth, d.CanvasHeight)
			cells = fmt.Sprint(d.PaintedCells())
		}
		rows = append(rows, []string{s.ID, pattern, size, cells, formatRelativeTime(s.UpdatedAt)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Pattern", "Size", "Cells", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleHighlight
			case col == 4:
				return StyleDim
			default:
				return StyleValue
			}
		}).
		Render()
}

func (c *CLI) drawingsPushCommand(server *string) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Upload a drawing JSON file",
		Long: `Upload a drawing. Without --id a new drawing is created; with --id the
existing drawing is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c.readDocument(args[0])
			if err != nil {
				return err
			}
			if err := doc.Validate(); err != nil {
				return err
			}

			return c.withClient(cmd, *server, func(ctx context.Context, cl *client.Client) error {
				spinner := newSpinner(ctx, "Uploading drawing...")
				spinner.Start()

				var meta *api.DrawingMeta
				if id == "" {
					meta, err = cl.Create(ctx, doc)
				} else {
					meta, err = cl.Update(ctx, id, doc)
				}
				if err != nil {
					spinner.StopWithError("Upload failed")
					return err
				}
				spinner.StopWithSuccess("Saved drawing " + StyleHighlight.Render(meta.ID))
				printDrawingStats(doc)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "replace this drawing instead of creating one")

	return cmd
}

func (c *CLI) drawingsPullCommand(server *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pull <id>",
		Short: "Download a drawing as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd, *server, func(ctx context.Context, cl *client.Client) error {
				rec, err := cl.Get(ctx, args[0])
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(rec.DrawingData, "", "  ")
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "encode drawing")
				}
				if err := c.writeOutput(output, append(data, '\n')); err != nil {
					return err
				}
				if output != "" && output != stdinArg {
					printSuccess("Pulled %s", StyleHighlight.Render(drawingSummary(rec.DrawingData)))
					printFile(output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func (c *CLI) drawingsDeleteCommand(server *string) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a drawing",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd, *server, func(ctx context.Context, cl *client.Client) error {
				if err := cl.Delete(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}

func (c *CLI) drawingsShareCommand(server *string) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Create a share link for a saved drawing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd, *server, func(ctx context.Context, cl *client.Client) error {
				rec, err := cl.Get(ctx, args[0])
				if err != nil {
					return err
				}
				share, err := cl.Share(ctx, rec.DrawingData)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.stdout, share.URL)
				if open {
					if err := openBrowser(share.URL); err != nil {
						c.Logger.Warn("Could not open browser", "err", err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "open the link in a browser")

	return cmd
}

func (c *CLI) drawingsPreviewCommand(server *string) *cobra.Command {
	var (
		format string
		output string
		size   float64
	)

	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Download a server-rendered preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := preview.ParseFormat(format)
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0] + "." + f
			}
			return c.withClient(cmd, *server, func(ctx context.Context, cl *client.Client) error {
				data, err := cl.Preview(ctx, args[0], client.PreviewOptions{Format: f, Size: size})
				if err != nil {
					return err
				}
				if err := c.writeOutput(output, data); err != nil {
					return err
				}
				if output != stdinArg {
					printSuccess("Saved %s preview", strings.ToUpper(f))
					printFile(output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", preview.FormatPNG, "png, svg or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <id>.<format>, - for stdout)")
	cmd.Flags().Float64Var(&size, "size", 0, "longest side in pixels (server default when 0)")

	return cmd
}

// openBrowser opens an http(s) URL with the platform's default handler.
func openBrowser(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
