package renderer

import (
	"bytes"
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/geom"
)

const svgPadding = 10

// WriteSVG paints the diagram as a standalone SVG document.
func WriteSVG(w io.Writer, r *Registry, d document.Diagram) error {
	bounds := d.BoundingBoxOf(d.RootOrder())
	origin := geom.Point{X: bounds.X - svgPadding, Y: bounds.Y - svgPadding}
	width := int(math.Ceil(bounds.Width)) + 2*svgPadding
	height := int(math.Ceil(bounds.Height)) + 2*svgPadding

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#ffffff")

	for _, v := range Compile(r, d) {
		if len(v.Primitives) == 0 {
			continue
		}
		m := geom.Translate(-origin.X, -origin.Y).Multiply(v.Matrix())
		canvas.Gid(v.ShapeID)
		canvas.Gtransform(fmt.Sprintf("matrix(%g %g %g %g %g %g)", m[0], m[1], m[2], m[3], m[4], m[5]))
		for _, p := range v.Primitives {
			drawSVG(canvas, p)
		}
		canvas.Gend()
		canvas.Gend()
	}
	canvas.End()

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func drawSVG(canvas *svg.SVG, p Primitive) {
	round := func(f float64) int { return int(math.Round(f)) }
	switch p.Op {
	case OpRect:
		style := fillStroke(p)
		if p.Radius > 0 {
			canvas.Roundrect(round(p.X), round(p.Y), round(p.Width), round(p.Height), round(p.Radius), round(p.Radius), style)
			return
		}
		canvas.Rect(round(p.X), round(p.Y), round(p.Width), round(p.Height), style)
	case OpEllipse:
		canvas.Ellipse(round(p.X+p.Width/2), round(p.Y+p.Height/2), round(p.Width/2), round(p.Height/2), fillStroke(p))
	case OpLine:
		canvas.Line(round(p.X), round(p.Y), round(p.X2), round(p.Y2), fillStroke(p))
	case OpText:
		if p.Text == "" {
			return
		}
		anchor := "start"
		switch p.Align {
		case "center":
			anchor = "middle"
		case "right":
			anchor = "end"
		}
		style := fmt.Sprintf("font-family:sans-serif;font-size:%gpx;fill:%s;text-anchor:%s;dominant-baseline:middle",
			p.FontSize, paint(p.Color), anchor)
		canvas.Text(round(p.X), round(p.Y), p.Text, style)
	}
}

func fillStroke(p Primitive) string {
	style := "fill:" + paint(p.Fill)
	if stroke := paint(p.Stroke); stroke != "none" && p.StrokeWidth > 0 {
		style += fmt.Sprintf(";stroke:%s;stroke-width:%g", stroke, p.StrokeWidth)
	}
	return style
}

// paint turns a color into a style value. svgo reads a style containing '='
// as raw attributes, so only parsed colors are written, in hex form.
func paint(c string) string {
	rgba, ok := document.ParseColor(c)
	if !ok || rgba.A == 0 {
		return "none"
	}
	if rgba.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.3g)", rgba.R, rgba.G, rgba.B, float64(rgba.A)/255)
}
