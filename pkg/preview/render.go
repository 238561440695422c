package preview

import (
	"slices"
	"strings"

	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
)

// Output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
	FormatPDF = "pdf"
)

// Formats lists the supported output formats.
var Formats = []string{FormatPNG, FormatSVG, FormatPDF}

type renderer struct {
	render      func(*drawing.Document, ...Option) ([]byte, error)
	contentType string
}

var renderers = map[string]renderer{
	FormatPNG: {RenderPNG, "image/png"},
	FormatSVG: {RenderSVG, "image/svg+xml"},
	FormatPDF: {RenderPDF, "application/pdf"},
}

// ParseFormat normalises a format name such as "PNG" or ".svg".
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(s, "."))
	if !slices.Contains(Formats, f) {
		return "", errors.New(errors.ErrCodeInvalidInput, "unsupported preview format %q (must be one of %s)", s, strings.Join(Formats, ", "))
	}
	return f, nil
}

// Render renders d in the named format.
func Render(format string, d *drawing.Document, opts ...Option) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return renderers[f].render(d, opts...)
}

// ContentType returns the MIME type for a format, or application/octet-stream.
func ContentType(format string) string {
	if r, ok := renderers[format]; ok {
		return r.contentType
	}
	return "application/octet-stream"
}
