package drawing

import (
	"github.com/matzehuels/pixelshare/pkg/errors"
)

// Limits enforced by [Document.Validate].
const (
	MaxCanvasSize = 256
	MaxPixelSize  = 100
	MaxColors     = 256
)

// Validate checks that d is safe to persist and render.
//
// The compact codec never calls Validate: decoding degrades malformed fields
// to defaults instead. Validate is applied where documents enter storage.
func (d *Document) Validate() error {
	if !d.Pattern.Valid() {
		return errors.New(errors.ErrCodeInvalidDrawing, "unknown pattern %q", d.Pattern)
	}
	if d.PixelSize <= 0 || d.PixelSize > MaxPixelSize {
		return errors.New(errors.ErrCodeInvalidDrawing, "pixel size must be between 1 and %d, got %d", MaxPixelSize, d.PixelSize)
	}
	if d.CanvasWidth <= 0 || d.CanvasWidth > MaxCanvasSize {
		return errors.New(errors.ErrCodeInvalidDrawing, "canvas width must be between 1 and %d, got %d", MaxCanvasSize, d.CanvasWidth)
	}
	if d.CanvasHeight <= 0 || d.CanvasHeight > MaxCanvasSize {
		return errors.New(errors.ErrCodeInvalidDrawing, "canvas height must be between 1 and %d, got %d", MaxCanvasSize, d.CanvasHeight)
	}
	if len(d.Colors) > MaxColors {
		return errors.New(errors.ErrCodeInvalidDrawing, "palette has %d colors (max %d)", len(d.Colors), MaxColors)
	}
	for _, c := range d.Colors {
		if err := errors.ValidateColor(c); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDrawing, err, "palette")
		}
	}
	for key, c := range d.Grid {
		row, col, ok := ParseCellKey(key)
		if !ok {
			return errors.New(errors.ErrCodeInvalidDrawing, "malformed cell key %q", key)
		}
		if row >= d.CanvasHeight || col >= d.CanvasWidth {
			return errors.New(errors.ErrCodeInvalidDrawing, "cell %q outside %dx%d canvas", key, d.CanvasWidth, d.CanvasHeight)
		}
		if err := errors.ValidateColor(c); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDrawing, err, "cell %s", key)
		}
	}
	return nil
}

// ParsePattern validates a full pattern name such as "bricksVertical".
func ParsePattern(s string) (Pattern, error) {
	p := Pattern(s)
	if !p.Valid() {
		return "", errors.New(errors.ErrCodeInvalidInput, "invalid pattern: %s (must be 'squares', 'bricks', or 'bricksVertical')", s)
	}
	return p, nil
}
