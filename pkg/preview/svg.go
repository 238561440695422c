package preview

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/matzehuels/pixelshare/pkg/drawing"
)

// RenderSVG draws d as a standalone SVG document. The viewBox keeps the
// unscaled frame so the output stays sharp at any zoom; width and height
// carry the scaled preview size.
func RenderSVG(d *drawing.Document, opts ...Option) ([]byte, error) {
	f, err := newFrame(d, newOptions(opts...))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s" shape-rendering="crispEdges">`,
		num(f.width), num(f.height), num(f.width*f.scale), num(f.height*f.scale))
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%s" height="%s" fill="%s"/>`, num(f.width), num(f.height), drawing.White)
	buf.WriteByte('\n')

	stroke := ""
	if f.lines {
		// Stroke width in viewBox units so it stays one screen pixel wide.
		stroke = fmt.Sprintf(` stroke="#dddddd" stroke-width="%s"`, num(1/f.scale))
	}

	f.each(func(row, col int, c string) {
		if drawing.IsWhite(c) && !f.lines {
			return
		}
		x, y := f.cellOrigin(row, col)
		fmt.Fprintf(&buf, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"%s/>`,
			num(x), num(y), num(f.px), num(f.px), svgColor(c), stroke)
		buf.WriteByte('\n')
	})

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// svgColor normalises cell colors through the same parser the raster path
// uses so arbitrary strings never reach the markup.
func svgColor(c string) string {
	rgba := parseColor(c)
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}
