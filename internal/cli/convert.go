package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelshare/pkg/client"
	"github.com/matzehuels/pixelshare/pkg/codec"
	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/transport"
)

// encodeOpts holds the flags of the encode command.
type encodeOpts struct {
	baseURL     string // print a share URL on this base instead of a bare token
	compression string // gzip or none
	legacy      bool   // emit the pre-compact JSON token format
}

// encodeCommand creates the encode command.
func (c *CLI) encodeCommand() *cobra.Command {
	opts := encodeOpts{compression: transport.CompressorGzip}

	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Turn a drawing JSON file into a share token",
		Long: `Encode a drawing into the token carried by share links.

The drawing is read from the file argument, or from stdin when the argument
is omitted or "-". Pass --url to print a complete share link.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c.readDocument(argOr(args, stdinArg))
			if err != nil {
				return err
			}
			return c.runEncode(doc, opts)
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "url", "", "print a share URL with this base (e.g. https://example.com/draw)")
	cmd.Flags().StringVar(&opts.compression, "compress", opts.compression, "compression: gzip or none")
	cmd.Flags().BoolVar(&opts.legacy, "legacy", false, "emit the legacy JSON token format")

	return cmd
}

func (c *CLI) runEncode(doc *drawing.Document, opts encodeOpts) error {
	var token string
	if opts.legacy {
		t, err := transport.EncodeLegacy(doc)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode legacy token")
		}
		token = t
	} else {
		tc, err := c.codecFor(opts.compression)
		if err != nil {
			return err
		}
		token = tc.Encode(doc)
	}

	out := token
	if opts.baseURL != "" {
		if err := errors.ValidateURL(opts.baseURL); err != nil {
			return err
		}
		u, err := transport.ShareURL(opts.baseURL, token)
		if err != nil {
			return err
		}
		out = u
	}
	_, err := fmt.Fprintln(c.stdout, out)
	return err
}

// decodeCommand creates the decode command.
func (c *CLI) decodeCommand() *cobra.Command {
	var compression, server string

	cmd := &cobra.Command{
		Use:   "decode <token|url>",
		Short: "Turn a share token or URL back into drawing JSON",
		Long: `Decode a share token, or the drawing parameter of a share URL, and print
the drawing as JSON. Both compact and legacy tokens are accepted; the format
found is logged to stderr. With --server the token is resolved by that
pixelshare server instead of locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := transport.TokenFromURL(args[0])
			if err != nil {
				return err
			}
			doc, format, err := c.decodeToken(cmd.Context(), token, compression, server)
			if err != nil {
				return err
			}
			c.Logger.Info("Decoded share token", "format", format, "cells", doc.PaintedCells())
			return c.writeJSON(doc)
		},
	}

	cmd.Flags().StringVar(&compression, "compress", transport.CompressorGzip, "compression the token was made with: gzip or none")
	cmd.Flags().StringVar(&server, "server", "", "resolve the token on this pixelshare server")

	return cmd
}

// decodeToken decodes locally, or through the API when server is set.
func (c *CLI) decodeToken(ctx context.Context, token, compression, server string) (*drawing.Document, transport.Format, error) {
	if server == "" {
		tc, err := c.codecFor(compression)
		if err != nil {
			return nil, "", err
		}
		return tc.Decode(token)
	}

	cl, err := client.New(server, "")
	if err != nil {
		return nil, "", err
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	return cl.Resolve(ctx, token)
}

// compactCommand creates the compact command.
func (c *CLI) compactCommand() *cobra.Command {
	var parse string

	cmd := &cobra.Command{
		Use:   "compact [file]",
		Short: "Print the compact form of a drawing",
		Long: `Print a drawing in the compact pipe-delimited form:

  pattern|pixelSize|width|height|colors|grid

With --parse, read a compact string instead and print the drawing as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("parse") {
				doc, err := codec.Unmarshal(parse)
				if err != nil {
					return err
				}
				return c.writeJSON(doc)
			}

			doc, err := c.readDocument(argOr(args, stdinArg))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.stdout, codec.Marshal(doc))
			return err
		},
	}

	cmd.Flags().StringVar(&parse, "parse", "", "parse this compact string and print JSON")

	return cmd
}

// argOr returns the first argument, or def when there is none.
func argOr(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}
