// Package persist converts diagrams to and from their serialized form.
package persist

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mydraft/mydraft/backend-go/internal/document"
)

// Version is the format version written by Encode.
const Version = 1

// ErrCorrupt marks input that cannot be turned into a valid diagram.
var ErrCorrupt = errors.New("corrupt diagram")

type Document struct {
	Version int                    `json:"version" yaml:"version"`
	Order   []string               `json:"order" yaml:"order"`
	Shapes  map[string]ShapeRecord `json:"shapes" yaml:"shapes"`
}

type ShapeRecord struct {
	ID         string             `json:"id" yaml:"id"`
	Type       string             `json:"type" yaml:"type"`
	Transform  document.Transform `json:"transform" yaml:"transform"`
	Properties []PropertyRecord   `json:"properties,omitempty" yaml:"properties,omitempty"`
	Parent     *string            `json:"parent" yaml:"parent"`
	Children   []string           `json:"children,omitempty" yaml:"children,omitempty"`
}

// PropertyRecord stores one typed value. Value holds a float64, a bool or a
// string depending on Kind.
type PropertyRecord struct {
	Key   string        `json:"key" yaml:"key"`
	Kind  document.Kind `json:"kind" yaml:"kind"`
	Value any           `json:"value" yaml:"value"`
}

// Encode converts a diagram into its serializable form.
func Encode(d document.Diagram) Document {
	doc := Document{
		Version: Version,
		Order:   make([]string, 0, len(d.RootOrder())),
		Shapes:  make(map[string]ShapeRecord, d.Len()),
	}
	for _, id := range d.RootOrder() {
		doc.Order = append(doc.Order, string(id))
	}
	for _, id := range d.IDs() {
		s, _ := d.Get(id)
		doc.Shapes[string(id)] = RecordOf(s)
	}
	return doc
}

// Decode rebuilds a diagram. Any structural problem is reported as ErrCorrupt.
func Decode(doc Document) (document.Diagram, error) {
	if doc.Version > Version {
		return document.Diagram{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, doc.Version)
	}

	keys := make([]string, 0, len(doc.Shapes))
	for k := range doc.Shapes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	shapes := make([]*document.Shape, 0, len(keys))
	for _, k := range keys {
		rec := doc.Shapes[k]
		if rec.ID != k {
			return document.Diagram{}, fmt.Errorf("%w: key %q holds shape %q", ErrCorrupt, k, rec.ID)
		}
		s, err := ShapeOf(rec)
		if err != nil {
			return document.Diagram{}, err
		}
		shapes = append(shapes, s)
	}

	order := make([]document.ID, len(doc.Order))
	for i, id := range doc.Order {
		order[i] = document.ID(id)
	}
	d, err := document.Build(order, shapes)
	if err != nil {
		return document.Diagram{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return d, nil
}

// RecordOf converts one shape.
func RecordOf(s *document.Shape) ShapeRecord {
	rec := ShapeRecord{
		ID:        string(s.ID()),
		Type:      s.Type(),
		Transform: s.Transform(),
	}
	if p := s.Parent(); p != "" {
		parent := string(p)
		rec.Parent = &parent
	}
	for _, c := range s.Children() {
		rec.Children = append(rec.Children, string(c))
	}
	for _, p := range s.Properties().All() {
		rec.Properties = append(rec.Properties, PropertyRecord{Key: p.Key, Kind: p.Value.Kind, Value: p.Value.Raw()})
	}
	return rec
}

// ShapeOf converts one record back into a shape.
func ShapeOf(rec ShapeRecord) (*document.Shape, error) {
	if rec.ID == "" || rec.Type == "" {
		return nil, fmt.Errorf("%w: shape record without id or type", ErrCorrupt)
	}
	if !finite(rec.Transform) {
		return nil, fmt.Errorf("%w: %s has a non-finite transform", ErrCorrupt, rec.ID)
	}

	items := make([]document.Property, 0, len(rec.Properties))
	seen := make(map[string]bool, len(rec.Properties))
	for _, p := range rec.Properties {
		if seen[p.Key] {
			return nil, fmt.Errorf("%w: %s repeats property %q", ErrCorrupt, rec.ID, p.Key)
		}
		seen[p.Key] = true
		v, err := ValueOf(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrCorrupt, rec.ID, p.Key, err)
		}
		items = append(items, document.Property{Key: p.Key, Value: v})
	}

	id := document.ID(rec.ID)
	var s *document.Shape
	if rec.Type == document.GroupType {
		children := make([]document.ID, len(rec.Children))
		for i, c := range rec.Children {
			children[i] = document.ID(c)
		}
		s = document.NewGroup(id, children, rec.Transform).WithProperties(document.NewProperties(items...))
	} else {
		if len(rec.Children) > 0 {
			return nil, fmt.Errorf("%w: leaf %s has children", ErrCorrupt, rec.ID)
		}
		s = document.NewShape(id, rec.Type, rec.Transform, document.NewProperties(items...))
	}
	if rec.Parent != nil {
		s = s.WithParent(document.ID(*rec.Parent))
	}
	return s, nil
}

// ValueOf converts a stored property value, checking it against its kind.
func ValueOf(p PropertyRecord) (document.Value, error) {
	switch p.Kind {
	case document.KindNumber:
		switch n := p.Value.(type) {
		case float64:
			return document.Number(n), nil
		case int:
			return document.Number(float64(n)), nil
		case int64:
			return document.Number(float64(n)), nil
		}
	case document.KindBool:
		if b, ok := p.Value.(bool); ok {
			return document.Bool(b), nil
		}
	case document.KindColor:
		if s, ok := p.Value.(string); ok {
			if !document.ValidColor(s) {
				return document.Value{}, fmt.Errorf("invalid color %q", s)
			}
			return document.Color(s), nil
		}
	case document.KindText, document.KindChoice:
		if s, ok := p.Value.(string); ok {
			return document.Value{Kind: p.Kind, Text: s}, nil
		}
	default:
		return document.Value{}, fmt.Errorf("unknown value kind %q", p.Kind)
	}
	return document.Value{}, fmt.Errorf("value %v does not match kind %q", p.Value, p.Kind)
}

func finite(t document.Transform) bool {
	for _, f := range []float64{t.X, t.Y, t.Width, t.Height, t.Rotation} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
