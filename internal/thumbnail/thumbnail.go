// Package thumbnail rasterizes diagrams into small PNG previews.
package thumbnail

import (
	"fmt"
	"io"
	"math"

	"github.com/gogpu/gg"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/geom"
	"github.com/mydraft/mydraft/backend-go/internal/renderer"
)

const (
	DefaultSize = 256
	padding     = 8
)

// Fit returns the scale that fits a diagram box into a size x size square.
// Diagrams smaller than the square are not enlarged.
func Fit(bounds geom.Rect, size int) float64 {
	avail := float64(size - 2*padding)
	if bounds.Width <= 0 || bounds.Height <= 0 || avail <= 0 {
		return 1
	}
	return math.Min(1, math.Min(avail/bounds.Width, avail/bounds.Height))
}

// WritePNG paints the diagram into a size x size PNG. Text is not drawn; a
// preview shows the shapes and their colors only.
func WritePNG(w io.Writer, r *renderer.Registry, d document.Diagram, size int) error {
	if size <= 0 {
		size = DefaultSize
	}
	dc := gg.NewContext(size, size)
	defer dc.Close()
	dc.ClearWithColor(gg.Hex("#ffffff"))

	bounds := d.BoundingBoxOf(d.RootOrder())
	scale := Fit(bounds, size)
	view := geom.Translate(padding, padding).
		Multiply(geom.Scale(scale, scale)).
		Multiply(geom.Translate(-bounds.X, -bounds.Y))

	for _, v := range renderer.Compile(r, d) {
		if len(v.Primitives) == 0 {
			continue
		}
		dc.Push()
		dc.SetTransform(toGG(view.Multiply(v.Matrix())))
		for _, p := range v.Primitives {
			if err := draw(dc, p); err != nil {
				dc.Pop()
				return fmt.Errorf("draw %s: %w", v.ShapeID, err)
			}
		}
		dc.Pop()
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// toGG converts a column-major [a b c d e f] matrix to gg's row form.
func toGG(m geom.Matrix2D) gg.Matrix {
	return gg.Matrix{
		A: m[0], B: m[2], C: m[4],
		D: m[1], E: m[3], F: m[5],
	}
}

func draw(dc *gg.Context, p renderer.Primitive) error {
	switch p.Op {
	case renderer.OpRect:
		if p.Radius > 0 {
			dc.DrawRoundedRectangle(p.X, p.Y, p.Width, p.Height, p.Radius)
		} else {
			dc.DrawRectangle(p.X, p.Y, p.Width, p.Height)
		}
		return paint(dc, p)
	case renderer.OpEllipse:
		dc.DrawEllipse(p.X+p.Width/2, p.Y+p.Height/2, p.Width/2, p.Height/2)
		return paint(dc, p)
	case renderer.OpLine:
		dc.MoveTo(p.X, p.Y)
		dc.LineTo(p.X2, p.Y2)
		return paint(dc, p)
	}
	return nil
}

// paint fills and strokes the current path.
func paint(dc *gg.Context, p renderer.Primitive) error {
	strokeColor, ok := document.ParseColor(p.Stroke)
	stroke := ok && p.StrokeWidth > 0
	if fill, ok := document.ParseColor(p.Fill); ok && p.Op != renderer.OpLine {
		dc.SetColor(fill)
		var err error
		if stroke {
			err = dc.FillPreserve()
		} else {
			err = dc.Fill()
		}
		if err != nil {
			return err
		}
	}
	if !stroke {
		dc.ClearPath()
		return nil
	}
	dc.SetColor(strokeColor)
	dc.SetLineWidth(p.StrokeWidth)
	return dc.Stroke()
}
