package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/pixelshare/pkg/drawing"
)

// RenderPNG rasterises d as a PNG that fits within the configured max size.
//
// Cells are first painted onto a small image at two units per cell (so brick
// offsets of half a cell stay on whole units), then scaled up or down with
// nearest-neighbour sampling to keep pixel edges crisp.
func RenderPNG(d *drawing.Document, opts ...Option) ([]byte, error) {
	f, err := newFrame(d, newOptions(opts...))
	if err != nil {
		return nil, err
	}
	img := f.raster()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderImage is RenderPNG without the encoding step.
func RenderImage(d *drawing.Document, opts ...Option) (image.Image, error) {
	f, err := newFrame(d, newOptions(opts...))
	if err != nil {
		return nil, err
	}
	return f.raster(), nil
}

func (f *frame) raster() *image.RGBA {
	cols, rows := f.doc.CanvasWidth*2, f.doc.CanvasHeight*2
	switch f.doc.Pattern {
	case drawing.PatternBricks:
		cols++
	case drawing.PatternBricksVertical:
		rows++
	}

	unit := image.NewRGBA(image.Rect(0, 0, cols, rows))
	xdraw.Draw(unit, unit.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	f.each(func(row, col int, c string) {
		if drawing.IsWhite(c) {
			return
		}
		x, y := col*2, row*2
		switch {
		case f.doc.Pattern == drawing.PatternBricks && row%2 == 1:
			x++
		case f.doc.Pattern == drawing.PatternBricksVertical && col%2 == 1:
			y++
		}
		xdraw.Draw(unit, image.Rect(x, y, x+2, y+2), image.NewUniform(parseColor(c)), image.Point{}, xdraw.Src)
	})

	w := max(1, int(math.Round(f.width*f.scale)))
	h := max(1, int(math.Round(f.height*f.scale)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), unit, unit.Bounds(), xdraw.Src, nil)

	if f.lines {
		f.each(func(row, col int, _ string) {
			x, y := f.cellOrigin(row, col)
			strokeRect(dst,
				int(math.Round(x*f.scale)), int(math.Round(y*f.scale)),
				int(math.Round((x+f.px)*f.scale)), int(math.Round((y+f.px)*f.scale)))
		})
	}
	return dst
}

// strokeRect draws a one-pixel border along the inside of [x0,x1)x[y0,y1).
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int) {
	b := img.Bounds()
	x1, y1 = min(x1, b.Max.X)-1, min(y1, b.Max.Y)-1
	if x1 < x0 || y1 < y0 {
		return
	}
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, gridLineColor)
		img.SetRGBA(x, y1, gridLineColor)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, gridLineColor)
		img.SetRGBA(x1, y, gridLineColor)
	}
}
