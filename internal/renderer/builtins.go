package renderer

import (
	"github.com/mydraft/mydraft/backend-go/internal/document"
)

// Property keys shared by the wireframe shapes.
const (
	KeyBackgroundColor = "backgroundColor"
	KeyForegroundColor = "foregroundColor"
	KeyStrokeColor     = "strokeColor"
	KeyStrokeThickness = "strokeThickness"
	KeyFontSize        = "fontSize"
	KeyText            = "text"
	KeyTextAlignment   = "textAlignment"
	KeyState           = "state"
)

var alignments = []string{"left", "center", "right"}

func ptr(f float64) *float64 { return &f }

func background(def string) PropertySchema {
	return PropertySchema{Key: KeyBackgroundColor, Label: "Background", Kind: document.KindColor, Default: document.Color(def)}
}

func foreground(def string) PropertySchema {
	return PropertySchema{Key: KeyForegroundColor, Label: "Foreground", Kind: document.KindColor, Default: document.Color(def)}
}

func strokeColor(def string) PropertySchema {
	return PropertySchema{Key: KeyStrokeColor, Label: "Stroke", Kind: document.KindColor, Default: document.Color(def)}
}

func strokeThickness(def float64) PropertySchema {
	return PropertySchema{Key: KeyStrokeThickness, Label: "Stroke thickness", Kind: document.KindNumber,
		Default: document.Number(def), Min: ptr(0), Max: ptr(20)}
}

func fontSize(def float64) PropertySchema {
	return PropertySchema{Key: KeyFontSize, Label: "Font size", Kind: document.KindNumber,
		Default: document.Number(def), Min: ptr(6), Max: ptr(96)}
}

func text(def string) PropertySchema {
	return PropertySchema{Key: KeyText, Label: "Text", Kind: document.KindText, Default: document.Text(def)}
}

func alignment(def string) PropertySchema {
	return PropertySchema{Key: KeyTextAlignment, Label: "Alignment", Kind: document.KindChoice,
		Default: document.Choice(def), Options: alignments}
}

// basic is a table-driven renderer; the built-in shapes only differ in their
// defaults and drawing function.
type basic struct {
	typ         string
	width       float64
	height      float64
	schema      []PropertySchema
	constraints Constraints
	draw        func(p props, w, h float64) []Primitive
}

func (b *basic) Type() string { return b.typ }
func (b *basic) DefaultSize() (float64, float64) { return b.width, b.height }
func (b *basic) Constraints() Constraints { return b.constraints }

func (b *basic) Schema() []PropertySchema {
	out := make([]PropertySchema, len(b.schema))
	copy(out, b.schema)
	return out
}

func (b *basic) Render(s *document.Shape) []Primitive {
	t := s.Transform()
	return b.draw(props{schema: b.schema, values: s.Properties()}, t.Width, t.Height)
}

// props reads property values, falling back to schema defaults.
type props struct {
	schema []PropertySchema
	values document.Properties
}

func (p props) value(key string) document.Value {
	if v, ok := p.values.Get(key); ok {
		return v
	}
	for _, s := range p.schema {
		if s.Key == key {
			return s.Default
		}
	}
	return document.Value{}
}

func (p props) str(key string) string  { return p.value(key).Text }
func (p props) num(key string) float64 { return p.value(key).Number }

func (p props) textAt(w, h float64) Primitive {
	x := 0.0
	align := p.str(KeyTextAlignment)
	switch align {
	case "center":
		x = w / 2
	case "right":
		x = w
	case "":
		align = "left"
	}
	return Primitive{
		Op:       OpText,
		X:        x,
		Y:        h / 2,
		Width:    w,
		Text:     p.str(KeyText),
		FontSize: p.num(KeyFontSize),
		Color:    p.str(KeyForegroundColor),
		Align:    align,
	}
}

func (p props) frame(w, h, radius float64) Primitive {
	return Primitive{
		Op:          OpRect,
		Width:       w,
		Height:      h,
		Radius:      radius,
		Fill:        p.str(KeyBackgroundColor),
		Stroke:      p.str(KeyStrokeColor),
		StrokeWidth: p.num(KeyStrokeThickness),
	}
}

// Builtins returns the wireframe shape library.
func Builtins() []Renderer {
	return []Renderer{
		&basic{
			typ: "rectangle", width: 100, height: 60,
			schema: []PropertySchema{
				background("#ffffff"), strokeColor("#333333"), strokeThickness(1),
				text(""), fontSize(14), foreground("#000000"), alignment("center"),
			},
			constraints: Constraints{MinWidth: 1, MinHeight: 1},
			draw: func(p props, w, h float64) []Primitive {
				return []Primitive{p.frame(w, h, 0), p.textAt(w, h)}
			},
		},
		&basic{
			typ: "ellipse", width: 100, height: 100,
			schema: []PropertySchema{
				background("#ffffff"), strokeColor("#333333"), strokeThickness(1),
				text(""), fontSize(14), foreground("#000000"),
			},
			constraints: Constraints{MinWidth: 1, MinHeight: 1},
			draw: func(p props, w, h float64) []Primitive {
				e := p.frame(w, h, 0)
				e.Op = OpEllipse
				t := p.textAt(w, h)
				t.X, t.Align = w/2, "center"
				return []Primitive{e, t}
			},
		},
		&basic{
			typ: "label", width: 80, height: 30,
			schema: []PropertySchema{
				text("Label"), fontSize(14), foreground("#000000"), alignment("left"),
			},
			constraints: Constraints{MinWidth: 10, FixedHeight: true},
			draw: func(p props, w, h float64) []Primitive {
				return []Primitive{p.textAt(w, h)}
			},
		},
		&basic{
			typ: "button", width: 100, height: 30,
			schema: []PropertySchema{
				background("#eeeeee"), strokeColor("#333333"), strokeThickness(1),
				text("Button"), fontSize(14), foreground("#000000"), alignment("center"),
			},
			constraints: Constraints{MinWidth: 20, MinHeight: 20},
			draw: func(p props, w, h float64) []Primitive {
				return []Primitive{p.frame(w, h, 4), p.textAt(w, h)}
			},
		},
		&basic{
			typ: "textbox", width: 150, height: 30,
			schema: []PropertySchema{
				background("#ffffff"), strokeColor("#333333"), strokeThickness(1),
				text("TextBox"), fontSize(14), foreground("#000000"), alignment("left"),
			},
			constraints: Constraints{MinWidth: 40, FixedHeight: true},
			draw: func(p props, w, h float64) []Primitive {
				t := p.textAt(w-10, h)
				t.X += 5
				return []Primitive{p.frame(w, h, 0), t}
			},
		},
		&basic{
			typ: "checkbox", width: 104, height: 20,
			schema: []PropertySchema{
				text("Checkbox"), fontSize(14), foreground("#000000"),
				strokeColor("#333333"), strokeThickness(1),
				{Key: KeyState, Label: "State", Kind: document.KindChoice, Default: document.Choice("unchecked"),
					Options: []string{"unchecked", "checked", "indeterminate"}},
			},
			constraints: Constraints{MinWidth: 20, FixedHeight: true},
			draw: func(p props, w, h float64) []Primitive {
				box := Primitive{Op: OpRect, Width: h, Height: h, Fill: "#ffffff",
					Stroke: p.str(KeyStrokeColor), StrokeWidth: p.num(KeyStrokeThickness)}
				out := []Primitive{box}
				switch p.str(KeyState) {
				case "checked":
					out = append(out,
						Primitive{Op: OpLine, X: h * 0.2, Y: h * 0.5, X2: h * 0.4, Y2: h * 0.8, Stroke: p.str(KeyStrokeColor), StrokeWidth: 2},
						Primitive{Op: OpLine, X: h * 0.4, Y: h * 0.8, X2: h * 0.8, Y2: h * 0.2, Stroke: p.str(KeyStrokeColor), StrokeWidth: 2},
					)
				case "indeterminate":
					out = append(out, Primitive{Op: OpRect, X: h * 0.25, Y: h * 0.25, Width: h * 0.5, Height: h * 0.5, Fill: p.str(KeyStrokeColor)})
				}
				t := p.textAt(w-h-4, h)
				t.X, t.Align = h+4, "left"
				return append(out, t)
			},
		},
		&basic{
			typ: "comment", width: 170, height: 150,
			schema: []PropertySchema{
				background("#fff6a8"), text(""), fontSize(12), foreground("#000000"),
			},
			constraints: Constraints{MinWidth: 50, MinHeight: 50},
			draw: func(p props, w, h float64) []Primitive {
				t := p.textAt(w-20, h)
				t.X, t.Y, t.Align = 10, 10, "left"
				return []Primitive{
					{Op: OpRect, Width: w, Height: h, Fill: p.str(KeyBackgroundColor), Stroke: "#e0c800", StrokeWidth: 1},
					t,
				}
			},
		},
	}
}
