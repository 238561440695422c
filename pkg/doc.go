// Package pkg provides the core libraries for pixelshare, a pixel-art drawing
// format with compact, URL-safe share tokens.
//
// # Overview
//
// A drawing is a sparse grid of hex colors on a fixed canvas, tiled in one of
// three patterns (squares, bricks, vertical bricks). The pkg directory is
// organized into three areas:
//
//  1. Format - the drawing model and its text and token encodings
//  2. Rendering - PNG, SVG and PDF previews
//  3. Infrastructure - storage, caching, sessions, the HTTP API and its client
//
// # Architecture
//
// The path a drawing takes from the editor to a share link:
//
//	drawing.Document
//	       ↓
//	  [codec] compact text "pattern|pixelSize|w|h|colors|grid"
//	       ↓
//	  [transport] gzip → base64url token (?drawing=...)
//	       ↓
//	  share URL / [api] / [preview]
//
// Decoding runs the same chain in reverse, falling back to the legacy
// base64-encoded JSON form for tokens minted by older clients.
//
// # Quick Start
//
// Encode a drawing into a share URL:
//
//	d := drawing.New()
//	d.Pattern = drawing.PatternBricks
//	d.Set(0, 0, "#ff0000")
//
//	token := transport.Encode(d)
//	u, _ := transport.ShareURL("https://pixelshare.example", token)
//
// Decode it again, whichever format it was minted in:
//
//	doc, format, err := transport.Decode(token)
//
// Render a preview:
//
//	png, err := preview.Render(preview.FormatPNG, doc, preview.WithMaxSize(512))
//
// # Main Packages
//
// [drawing] - The document model, cell keys, defaults and validation.
//
// [codec] - The compact text form. Marshal is canonical: cells sort by row
// then column and white cells are dropped. Unmarshal degrades malformed
// fields to defaults instead of failing.
//
// [transport] - Share tokens: compression, unpadded base64url and the legacy
// JSON fallback. Also builds and parses share URLs.
//
// [preview] - Raster and vector renderings of a drawing.
//
// [store] - Drawing persistence with memory and MongoDB backends.
//
// [cache] - Byte cache for previews and decoded tokens with file, Redis and
// null backends.
//
// [session] - Sessions for the API and the CLI login, with memory, Redis and
// file backends.
//
// [api] - The chi-based HTTP server. [client] - its Go client.
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Coded errors that map to HTTP statuses and user messages.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/codec/...              # Specific package
//	go test -tags integration ./pkg/...  # Include MongoDB and Redis tests
//
// [drawing]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/drawing
// [codec]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/codec
// [transport]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/transport
// [preview]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/preview
// [store]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/session
// [api]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/api
// [client]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/client
// [config]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pixelshare/pkg/errors
package pkg
