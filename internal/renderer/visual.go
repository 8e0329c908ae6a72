package renderer

import (
	"encoding/json"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/geom"
)

// Primitive ops.
const (
	OpRect    = "rect"
	OpEllipse = "ellipse"
	OpText    = "text"
	OpLine    = "line"
)

// Primitive is a single drawing operation in the shape's local box.
// Lines use (X, Y) to (X2, Y2).
type Primitive struct {
	Op          string  `json:"op"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	X2          float64 `json:"x2,omitempty"`
	Y2          float64 `json:"y2,omitempty"`
	Radius      float64 `json:"radius,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Text        string  `json:"text,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
	Color       string  `json:"color,omitempty"`
	Align       string  `json:"align,omitempty"`
}

// Visual is the presentation of one shape: its primitives plus the world
// matrix [a, b, c, d, e, f] that maps the local box onto the diagram.
type Visual struct {
	ShapeID     string      `json:"shapeId"`
	Type        string      `json:"type"`
	Transform   []float64   `json:"transform"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Primitives  []Primitive `json:"primitives,omitempty"`
	Placeholder bool        `json:"placeholder,omitempty"`
	Depth       int         `json:"depth"`
}

// Matrix returns the world matrix of v.
func (v Visual) Matrix() geom.Matrix2D {
	if len(v.Transform) != 6 {
		return geom.Identity()
	}
	return geom.Matrix2D(v.Transform)
}

// Compile renders a whole diagram in painter's order (back to front). Groups
// are emitted before their children and carry no primitives.
func Compile(r *Registry, d document.Diagram) []Visual {
	var out []Visual
	d.Walk(func(s *document.Shape, depth int) bool {
		v := r.Render(s)
		v.Depth = depth
		out = append(out, v)
		return true
	})
	return out
}

// VisualsToJSON serializes a visual list.
func VisualsToJSON(visuals []Visual) (string, error) {
	data, err := json.Marshal(visuals)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the frontmost leaf whose rotated box contains p, or "".
func HitTest(d document.Diagram, p geom.Point) document.ID {
	var hit document.ID
	d.Walk(func(s *document.Shape, _ int) bool {
		if s.IsGroup() {
			return true
		}
		local := s.Transform().Matrix().Invert().TransformPoint(p)
		t := s.Transform()
		if (geom.Rect{Width: t.Width, Height: t.Height}).Contains(local) {
			hit = s.ID()
		}
		return true
	})
	return hit
}

func placeholder(w, h float64) []Primitive {
	return []Primitive{
		{Op: OpRect, Width: w, Height: h, Fill: "#f5f5f5", Stroke: "#c0c0c0", StrokeWidth: 1},
		{Op: OpLine, X2: w, Y2: h, Stroke: "#c0c0c0", StrokeWidth: 1},
		{Op: OpLine, X: w, X2: 0, Y2: h, Stroke: "#c0c0c0", StrokeWidth: 1},
	}
}
