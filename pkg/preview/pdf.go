package preview

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"

	"github.com/matzehuels/pixelshare/pkg/drawing"
)

// RenderPDF draws d on a single page sized to the scaled frame, in points.
func RenderPDF(d *drawing.Document, opts ...Option) ([]byte, error) {
	f, err := newFrame(d, newOptions(opts...))
	if err != nil {
		return nil, err
	}

	w, h := f.width*f.scale, f.height*f.scale
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("pixelshare", true)
	pdf.AddPage()

	pdf.SetFillColor(0xff, 0xff, 0xff)
	pdf.Rect(0, 0, w, h, "F")

	style := "F"
	if f.lines {
		style = "FD"
		pdf.SetDrawColor(int(gridLineColor.R), int(gridLineColor.G), int(gridLineColor.B))
		pdf.SetLineWidth(0.5)
	}

	cell := f.px * f.scale
	f.each(func(row, col int, c string) {
		if drawing.IsWhite(c) && !f.lines {
			return
		}
		x, y := f.cellOrigin(row, col)
		rgba := parseColor(c)
		pdf.SetFillColor(int(rgba.R), int(rgba.G), int(rgba.B))
		pdf.Rect(x*f.scale, y*f.scale, cell, cell, style)
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
