package preview

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
)

// DefaultMaxSize is the default bound on preview width and height.
const DefaultMaxSize = 200

// MaxSizeLimit is the largest max size callers should accept from users.
const MaxSizeLimit = 4096

// gridLineColor is the stroke used for cell borders.
var gridLineColor = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}

// minGridScale is the scale below which cell borders are not drawn.
const minGridScale = 0.3

// Option configures rendering.
type Option func(*options)

type options struct {
	maxSize   float64
	gridLines bool
}

// WithMaxSize bounds the larger preview dimension. Values <= 0 render at
// full size.
func WithMaxSize(s float64) Option { return func(o *options) { o.maxSize = s } }

// WithGridLines toggles cell borders. Borders are never drawn when the
// preview is scaled below 0.3.
func WithGridLines(on bool) Option { return func(o *options) { o.gridLines = on } }

func newOptions(opts ...Option) options {
	o := options{maxSize: DefaultMaxSize, gridLines: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// frame describes where cells land for one document.
type frame struct {
	doc    *drawing.Document
	px     float64
	width  float64 // unscaled frame width
	height float64 // unscaled frame height
	scale  float64
	lines  bool
}

func newFrame(d *drawing.Document, o options) (*frame, error) {
	doc := d.Clone()
	doc.ApplyDefaults()
	if doc.CanvasWidth > drawing.MaxCanvasSize || doc.CanvasHeight > drawing.MaxCanvasSize {
		return nil, errors.New(errors.ErrCodeInvalidDrawing, "canvas %dx%d too large to render (max %d)",
			doc.CanvasWidth, doc.CanvasHeight, drawing.MaxCanvasSize)
	}
	if doc.PixelSize > drawing.MaxPixelSize {
		return nil, errors.New(errors.ErrCodeInvalidDrawing, "pixel size %d too large to render (max %d)",
			doc.PixelSize, drawing.MaxPixelSize)
	}

	w, h := Size(doc)
	f := &frame{
		doc:    doc,
		px:     float64(doc.PixelSize),
		width:  w,
		height: h,
		scale:  Scale(doc, o.maxSize),
	}
	f.lines = o.gridLines && f.scale > minGridScale
	return f, nil
}

// cellOrigin returns the unscaled top-left corner of a cell. In the bricks
// pattern odd rows shift right by half a cell; in bricksVertical odd columns
// shift down by half a cell.
func (f *frame) cellOrigin(row, col int) (x, y float64) {
	x = float64(col) * f.px
	y = float64(row) * f.px
	switch {
	case f.doc.Pattern == drawing.PatternBricks && row%2 == 1:
		x += f.px / 2
	case f.doc.Pattern == drawing.PatternBricksVertical && col%2 == 1:
		y += f.px / 2
	}
	return x, y
}

// each calls fn for every cell in row-major order with its color.
func (f *frame) each(fn func(row, col int, c string)) {
	for row := 0; row < f.doc.CanvasHeight; row++ {
		for col := 0; col < f.doc.CanvasWidth; col++ {
			fn(row, col, f.doc.Get(row, col))
		}
	}
}

// Size returns the unscaled frame size of d, including the half-cell
// overhang of brick patterns.
func Size(d *drawing.Document) (width, height float64) {
	px := float64(d.PixelSize)
	width = float64(d.CanvasWidth) * px
	height = float64(d.CanvasHeight) * px
	switch d.Pattern {
	case drawing.PatternBricks:
		width += px / 2
	case drawing.PatternBricksVertical:
		height += px / 2
	}
	return width, height
}

// Scale returns the factor that fits d within maxSize on both axes without
// ever enlarging it. A non-positive maxSize yields 1.
func Scale(d *drawing.Document, maxSize float64) float64 {
	if maxSize <= 0 {
		return 1
	}
	w, h := Size(d)
	if w <= 0 || h <= 0 {
		return 1
	}
	return min(maxSize/w, maxSize/h, 1)
}

// parseColor converts a hex color; anything unparsable renders white.
func parseColor(s string) color.RGBA {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
