package document

import (
	"slices"

	"github.com/mydraft/mydraft/backend-go/internal/geom"
)

// ID identifies a shape or group. IDs are never reused within a session.
type ID string

// GroupType is the type identifier carried by every group.
const GroupType = "group"

// Transform places a shape: top-left position, size and a rotation in
// degrees around the box center.
type Transform struct {
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Rotation float64 `json:"rotation" yaml:"rotation"`
}

// TransformFromBox builds a transform from a box and a rotation.
func TransformFromBox(box geom.Rect, rotation float64) Transform {
	return Transform{
		X:        box.X,
		Y:        box.Y,
		Width:    box.Width,
		Height:   box.Height,
		Rotation: geom.NormalizeAngle(rotation),
	}
}

// Box returns the unrotated box.
func (t Transform) Box() geom.Rect {
	return geom.Rect{X: t.X, Y: t.Y, Width: t.Width, Height: t.Height}
}

// Bounds returns the axis-aligned box covering the rotated shape.
func (t Transform) Bounds() geom.Rect {
	box := t.Box()
	return geom.Rotate(box, t.Rotation, box.Center())
}

// Translate moves the transform by (dx, dy).
func (t Transform) Translate(dx, dy float64) Transform {
	t.X += dx
	t.Y += dy
	return t
}

// WithBox replaces position and size, keeping rotation.
func (t Transform) WithBox(box geom.Rect) Transform {
	t.X, t.Y, t.Width, t.Height = box.X, box.Y, box.Width, box.Height
	return t
}

// Normalized clamps negative sizes to zero and normalizes the rotation.
func (t Transform) Normalized() Transform {
	t.Width = max(t.Width, 0)
	t.Height = max(t.Height, 0)
	t.Rotation = geom.NormalizeAngle(t.Rotation)
	return t
}

// Matrix maps the local (0,0)-(w,h) box onto the diagram.
func (t Transform) Matrix() geom.Matrix2D {
	return geom.BoxMatrix(t.Box(), t.Rotation)
}

// Shape is an immutable scene element. A group is a shape whose type is
// GroupType and that owns an ordered list of children (paint order).
//
// Shapes are shared between diagram snapshots; all mutators return a copy.
type Shape struct {
	id        ID
	typ       string
	transform Transform
	props     Properties
	parent    ID
	children  []ID
}

// NewShape creates a leaf shape.
func NewShape(id ID, typ string, t Transform, props Properties) *Shape {
	return &Shape{
		id:        id,
		typ:       typ,
		transform: t.Normalized(),
		props:     props,
	}
}

// NewGroup creates a group owning children. Its transform is normally set by
// the diagram from the union of the children's boxes.
func NewGroup(id ID, children []ID, t Transform) *Shape {
	return &Shape{
		id:        id,
		typ:       GroupType,
		transform: t.Normalized(),
		children:  slices.Clone(children),
	}
}

func (s *Shape) ID() ID                 { return s.id }
func (s *Shape) Type() string           { return s.typ }
func (s *Shape) Transform() Transform   { return s.transform }
func (s *Shape) Properties() Properties { return s.props }
func (s *Shape) Parent() ID             { return s.parent }
func (s *Shape) IsGroup() bool          { return s.typ == GroupType }

// Children returns a copy of the child ids in paint order.
func (s *Shape) Children() []ID { return slices.Clone(s.children) }

// ChildCount returns the number of direct children.
func (s *Shape) ChildCount() int { return len(s.children) }

// IndexOfChild returns the paint index of child, or -1.
func (s *Shape) IndexOfChild(child ID) int { return slices.Index(s.children, child) }

// Property returns the value stored under key.
func (s *Shape) Property(key string) (Value, bool) { return s.props.Get(key) }

// Bounds is the axis-aligned box the shape occupies. Groups report their
// stored box, which the diagram keeps equal to the union of their children.
func (s *Shape) Bounds() geom.Rect {
	if s.IsGroup() {
		return s.transform.Box()
	}
	return s.transform.Bounds()
}

func (s *Shape) clone() *Shape {
	c := *s
	return &c
}

// WithTransform returns a copy with transform t.
func (s *Shape) WithTransform(t Transform) *Shape {
	c := s.clone()
	c.transform = t.Normalized()
	return c
}

// WithProperty returns a copy with key set to v.
func (s *Shape) WithProperty(key string, v Value) *Shape {
	c := s.clone()
	c.props = s.props.Set(key, v)
	return c
}

// WithProperties returns a copy with the whole property set replaced.
func (s *Shape) WithProperties(p Properties) *Shape {
	c := s.clone()
	c.props = p
	return c
}

// WithParent returns a copy whose parent reference is parent ("" for root).
func (s *Shape) WithParent(parent ID) *Shape {
	c := s.clone()
	c.parent = parent
	return c
}

// WithID returns a copy carrying a different identifier.
func (s *Shape) WithID(id ID) *Shape {
	c := s.clone()
	c.id = id
	return c
}

// WithChildren returns a copy whose child list is children. No-op on leaves.
func (s *Shape) WithChildren(children []ID) *Shape {
	if !s.IsGroup() {
		return s
	}
	c := s.clone()
	c.children = slices.Clone(children)
	return c
}

// AddChild returns a copy with child inserted at index. An index that is
// negative or past the end appends. No-op on leaves or if already a child.
func (s *Shape) AddChild(child ID, index int) *Shape {
	if !s.IsGroup() || slices.Contains(s.children, child) {
		return s
	}
	return s.WithChildren(insertAt(s.children, child, index))
}

// RemoveChild returns a copy without child.
func (s *Shape) RemoveChild(child ID) *Shape {
	i := slices.Index(s.children, child)
	if i < 0 {
		return s
	}
	return s.WithChildren(slices.Delete(slices.Clone(s.children), i, i+1))
}

// Equal compares two shapes by value.
func (s *Shape) Equal(other *Shape) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return s.id == other.id &&
		s.typ == other.typ &&
		s.transform == other.transform &&
		s.parent == other.parent &&
		slices.Equal(s.children, other.children) &&
		s.props.Equal(other.props)
}

// insertAt returns a new slice with id inserted at index (clamped to append).
func insertAt(ids []ID, id ID, index int) []ID {
	out := make([]ID, 0, len(ids)+1)
	if index < 0 || index > len(ids) {
		index = len(ids)
	}
	out = append(out, ids[:index]...)
	out = append(out, id)
	out = append(out, ids[index:]...)
	return out
}
