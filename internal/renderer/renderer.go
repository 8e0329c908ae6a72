package renderer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/geom"
)

var (
	ErrUnknownShapeType = errors.New("unknown shape type")
	ErrDuplicateType    = errors.New("shape type registered twice")
)

// PropertySchema declares one appearance property of a shape type.
type PropertySchema struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Kind     document.Kind  `json:"kind"`
	Default  document.Value `json:"default"`
	Min      *float64       `json:"min,omitempty"`
	Max      *float64       `json:"max,omitempty"`
	Options  []string       `json:"options,omitempty"`
	ReadOnly bool           `json:"readOnly,omitempty"`
}

// Accepts reports whether v may be stored under this property.
func (p PropertySchema) Accepts(v document.Value) bool {
	if p.ReadOnly || v.Kind != p.Kind {
		return false
	}
	switch p.Kind {
	case document.KindColor:
		return document.ValidColor(v.Text)
	case document.KindNumber:
		if p.Min != nil && v.Number < *p.Min {
			return false
		}
		if p.Max != nil && v.Number > *p.Max {
			return false
		}
	case document.KindChoice:
		return slices.Contains(p.Options, v.Text)
	}
	return true
}

// Constraints limit how a shape may be resized.
type Constraints struct {
	MinWidth    float64 `json:"minWidth,omitempty"`
	MinHeight   float64 `json:"minHeight,omitempty"`
	FixedWidth  bool    `json:"fixedWidth,omitempty"`
	FixedHeight bool    `json:"fixedHeight,omitempty"`
	KeepAspect  bool    `json:"keepAspect,omitempty"`
}

// Apply fits box into the constraints, keeping the top-left corner. current
// is the box before the resize.
func (c Constraints) Apply(current, box geom.Rect) geom.Rect {
	if c.FixedWidth {
		box.Width = current.Width
	}
	if c.FixedHeight {
		box.Height = current.Height
	}
	if c.KeepAspect && current.Width > 0 && current.Height > 0 {
		ratio := current.Width / current.Height
		if box.Width/ratio > box.Height {
			box.Height = box.Width / ratio
		} else {
			box.Width = box.Height * ratio
		}
	}
	box.Width = max(box.Width, c.MinWidth)
	box.Height = max(box.Height, c.MinHeight)
	return box
}

// Renderer is the capability contract of a shape type.
type Renderer interface {
	Type() string
	DefaultSize() (width, height float64)
	Schema() []PropertySchema
	Constraints() Constraints
	// Render describes the shape in its local box (0,0)-(width,height).
	Render(s *document.Shape) []Primitive
}

// Registry maps type identifiers to renderers. It is read-only once built and
// safe for concurrent use.
type Registry struct {
	byType map[string]Renderer
	order  []string
}

// NewRegistry builds a registry. Registering the same type twice fails.
func NewRegistry(renderers ...Renderer) (*Registry, error) {
	r := &Registry{byType: make(map[string]Renderer, len(renderers))}
	for _, rr := range renderers {
		t := rr.Type()
		if t == "" || t == document.GroupType {
			return nil, fmt.Errorf("register %q: %w", t, ErrDuplicateType)
		}
		if _, ok := r.byType[t]; ok {
			return nil, fmt.Errorf("register %q: %w", t, ErrDuplicateType)
		}
		r.byType[t] = rr
		r.order = append(r.order, t)
	}
	return r, nil
}

// Default returns a registry holding the built-in wireframe shapes.
func Default() *Registry {
	r, err := NewRegistry(Builtins()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Types returns the registered type identifiers in registration order.
func (r *Registry) Types() []string {
	return slices.Clone(r.order)
}

// Lookup returns the renderer for typ.
func (r *Registry) Lookup(typ string) (Renderer, error) {
	rr, ok := r.byType[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShapeType, typ)
	}
	return rr, nil
}

// Schema returns the property schema of typ.
func (r *Registry) Schema(typ string) ([]PropertySchema, error) {
	rr, err := r.Lookup(typ)
	if err != nil {
		return nil, err
	}
	return rr.Schema(), nil
}

// PropertySchema returns the declaration of one property of typ.
func (r *Registry) PropertySchema(typ, key string) (PropertySchema, error) {
	schema, err := r.Schema(typ)
	if err != nil {
		return PropertySchema{}, err
	}
	for _, p := range schema {
		if p.Key == key {
			return p, nil
		}
	}
	return PropertySchema{}, fmt.Errorf("%w: %s has no property %q", document.ErrInvalidOperation, typ, key)
}

// DefaultTransform places a new shape of typ with its top-left corner at pos.
func (r *Registry) DefaultTransform(typ string, pos geom.Point) (document.Transform, error) {
	rr, err := r.Lookup(typ)
	if err != nil {
		return document.Transform{}, err
	}
	w, h := rr.DefaultSize()
	return document.Transform{X: pos.X, Y: pos.Y, Width: w, Height: h}, nil
}

// DefaultProperties returns the schema defaults of typ in schema order.
func (r *Registry) DefaultProperties(typ string) (document.Properties, error) {
	schema, err := r.Schema(typ)
	if err != nil {
		return document.Properties{}, err
	}
	items := make([]document.Property, 0, len(schema))
	for _, p := range schema {
		items = append(items, document.Property{Key: p.Key, Value: p.Default})
	}
	return document.NewProperties(items...), nil
}

// Constrain fits a requested box for a shape of typ. Unknown types and groups
// pass the box through.
func (r *Registry) Constrain(typ string, current, box geom.Rect) geom.Rect {
	rr, err := r.Lookup(typ)
	if err != nil {
		box.Width = max(box.Width, 0)
		box.Height = max(box.Height, 0)
		return box
	}
	return rr.Constraints().Apply(current, box)
}

// Render describes a single shape. Unknown types yield a placeholder; it never
// fails.
func (r *Registry) Render(s *document.Shape) Visual {
	t := s.Transform()
	v := Visual{
		ShapeID:   string(s.ID()),
		Type:      s.Type(),
		Transform: t.Matrix().ToSlice(),
		Width:     t.Width,
		Height:    t.Height,
	}
	if s.IsGroup() {
		return v
	}
	rr, err := r.Lookup(s.Type())
	if err != nil {
		v.Placeholder = true
		v.Primitives = placeholder(t.Width, t.Height)
		return v
	}
	v.Primitives = rr.Render(s)
	return v
}
