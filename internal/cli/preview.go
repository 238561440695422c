package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelshare/pkg/cache"
	"github.com/matzehuels/pixelshare/pkg/codec"
	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/preview"
	"github.com/matzehuels/pixelshare/pkg/transport"
)

// previewOpts holds the flags of the preview command.
type previewOpts struct {
	format    string  // png, svg or pdf
	output    string  // output path; "-" for stdout
	maxSize   float64 // longest side in pixels, 0 for full size
	gridLines bool    // draw cell borders
	noCache   bool    // bypass the local preview cache
}

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	opts := previewOpts{
		format:    preview.FormatPNG,
		maxSize:   preview.DefaultMaxSize,
		gridLines: true,
	}

	cmd := &cobra.Command{
		Use:   "preview <file|token|url>",
		Short: "Render a drawing to PNG, SVG or PDF",
		Long: `Render a drawing from a JSON file, a share token or a share URL.

Output goes to <name>.<format> next to the input file, or drawing.<format>
for tokens, unless -o is given. Use -o - to write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := preview.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			opts.format = format

			tc, err := c.codecFor(transport.CompressorGzip)
			if err != nil {
				return err
			}
			doc, _, err := c.loadDrawing(tc, args[0])
			if err != nil {
				return err
			}

			if opts.output == "" {
				opts.output = defaultPreviewPath(args[0], format)
			}
			return c.runPreview(cmd.Context(), doc, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: png, svg or pdf")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (- for stdout)")
	cmd.Flags().Float64Var(&opts.maxSize, "max-size", opts.maxSize, "longest side in pixels (0 for full size)")
	cmd.Flags().BoolVar(&opts.gridLines, "grid", opts.gridLines, "draw cell borders")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the preview cache")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, doc *drawing.Document, opts previewOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	store, err := newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	keyOpts := cache.PreviewKeyOpts{Format: opts.format, MaxSize: opts.maxSize, GridLines: opts.gridLines}
	key := cacheKeyer().PreviewKey(cache.HashString(codec.Marshal(doc)), keyOpts)
	data, err := cache.GetOrCompute(ctx, store, key, cache.KeyTypePreview, cache.PreviewTTL, func() ([]byte, error) {
		return preview.Render(opts.format, doc, preview.WithMaxSize(opts.maxSize), preview.WithGridLines(opts.gridLines))
	})
	if err != nil {
		return err
	}

	if err := c.writeOutput(opts.output, data); err != nil {
		return err
	}
	prog.done("Rendered " + strings.ToUpper(opts.format) + " preview")

	if opts.output != stdinArg {
		w, h := preview.Size(doc)
		scale := preview.Scale(doc, opts.maxSize)
		printSuccess("Rendered %s", StyleHighlight.Render(drawingSummary(doc)))
		printDetail("%.0fx%.0f px", w*scale, h*scale)
		printFile(opts.output)
	}
	return nil
}

// defaultPreviewPath derives the output path from the input argument.
func defaultPreviewPath(input, format string) string {
	if _, err := os.Stat(input); err == nil {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		return base + "." + format
	}
	return "drawing." + format
}
