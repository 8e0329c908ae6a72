package document

import (
	"fmt"
	"slices"

	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/mydraft/mydraft/backend-go/internal/geom"
)

// Diagram is an immutable scene graph: the root paint order (back to front)
// plus an index of every shape and group by id.
//
// The index is a persistent radix tree, so a mutator copies only the path to
// the changed entries and shares everything else with its predecessor. The
// zero value is an empty diagram.
type Diagram struct {
	order  []ID
	shapes *iradix.Tree[*Shape]
}

// New returns an empty diagram.
func New() Diagram {
	return Diagram{shapes: iradix.New[*Shape]()}
}

func (d Diagram) tree() *iradix.Tree[*Shape] {
	if d.shapes == nil {
		return iradix.New[*Shape]()
	}
	return d.shapes
}

// Len returns the number of shapes and groups at every level.
func (d Diagram) Len() int {
	if d.shapes == nil {
		return 0
	}
	return d.shapes.Len()
}

// Get returns the shape with the given id.
func (d Diagram) Get(id ID) (*Shape, bool) {
	if d.shapes == nil {
		return nil, false
	}
	return d.shapes.Get([]byte(id))
}

// Has reports whether id exists.
func (d Diagram) Has(id ID) bool {
	_, ok := d.Get(id)
	return ok
}

// Resolve returns the shape or group with the given id, or ErrNotFound.
func (d Diagram) Resolve(id ID) (*Shape, error) {
	s, ok := d.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// RootOrder returns the root-level ids in paint order.
func (d Diagram) RootOrder() []ID {
	return slices.Clone(d.order)
}

// IDs returns every id in the diagram in index order.
func (d Diagram) IDs() []ID {
	ids := make([]ID, 0, d.Len())
	d.tree().Root().Walk(func(k []byte, _ *Shape) bool {
		ids = append(ids, ID(k))
		return false
	})
	return ids
}

// Walk visits every shape depth-first in paint order (back to front), a group
// before its children. Returning false from fn stops the walk.
func (d Diagram) Walk(fn func(s *Shape, depth int) bool) {
	var visit func(ids []ID, depth int) bool
	visit = func(ids []ID, depth int) bool {
		for _, id := range ids {
			s, ok := d.Get(id)
			if !ok {
				continue
			}
			if !fn(s, depth) {
				return false
			}
			if s.IsGroup() && !visit(s.children, depth+1) {
				return false
			}
		}
		return true
	}
	visit(d.order, 0)
}

// ParentOf returns the parent group of id, or "" for root-level or unknown ids.
func (d Diagram) ParentOf(id ID) ID {
	if s, ok := d.Get(id); ok {
		return s.parent
	}
	return ""
}

// Children returns the paint-ordered children of a group.
func (d Diagram) Children(id ID) []ID {
	if s, ok := d.Get(id); ok {
		return s.Children()
	}
	return nil
}

// Level returns the sibling sequence owned by parent ("" is the root level).
func (d Diagram) Level(parent ID) []ID {
	if parent == "" {
		return d.RootOrder()
	}
	return d.Children(parent)
}

// Siblings returns the paint-order sequence that contains id.
func (d Diagram) Siblings(id ID) []ID {
	if !d.Has(id) {
		return nil
	}
	return d.Level(d.ParentOf(id))
}

// Descendants returns every id below id, depth-first in paint order.
func (d Diagram) Descendants(id ID) []ID {
	var out []ID
	var visit func(ID)
	visit = func(cur ID) {
		s, ok := d.Get(cur)
		if !ok {
			return
		}
		for _, c := range s.children {
			out = append(out, c)
			visit(c)
		}
	}
	visit(id)
	return out
}

// IsAncestor reports whether ancestor contains id directly or transitively.
func (d Diagram) IsAncestor(ancestor, id ID) bool {
	seen := make(map[ID]bool)
	for cur := d.ParentOf(id); cur != ""; cur = d.ParentOf(cur) {
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}

// TopLevel filters ids down to existing ids that have no ancestor in the
// list, keeping first-seen order and dropping duplicates.
func (d Diagram) TopLevel(ids []ID) []ID {
	set := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if d.Has(id) {
			set[id] = true
		}
	}
	out := make([]ID, 0, len(set))
	emitted := make(map[ID]bool, len(set))
	for _, id := range ids {
		if !set[id] || emitted[id] {
			continue
		}
		covered := false
		for cur := d.ParentOf(id); cur != ""; cur = d.ParentOf(cur) {
			if set[cur] {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, id)
			emitted[id] = true
		}
	}
	return out
}

// PaintIndex returns the position of id within its sibling sequence, or -1.
func (d Diagram) PaintIndex(id ID) int {
	return slices.Index(d.Siblings(id), id)
}

// BoundingBox returns the axis-aligned box of id. A group's box is the union
// of its resolved children's boxes; unknown ids yield an empty box.
func (d Diagram) BoundingBox(id ID) geom.Rect {
	s, ok := d.Get(id)
	if !ok {
		return geom.Rect{}
	}
	if !s.IsGroup() {
		return s.transform.Bounds()
	}
	var box geom.Rect
	for _, c := range s.children {
		box = box.Union(d.BoundingBox(c))
	}
	return box
}

// BoundingBoxOf returns the union box of several ids.
func (d Diagram) BoundingBoxOf(ids []ID) geom.Rect {
	var box geom.Rect
	for _, id := range ids {
		box = box.Union(d.BoundingBox(id))
	}
	return box
}

// Equal reports value equality of two diagrams.
func (d Diagram) Equal(other Diagram) bool {
	if !slices.Equal(d.order, other.order) || d.Len() != other.Len() {
		return false
	}
	if d.shapes == other.shapes {
		return true
	}
	equal := true
	d.tree().Root().Walk(func(k []byte, s *Shape) bool {
		o, ok := other.Get(ID(k))
		if !ok || !s.Equal(o) {
			equal = false
			return true
		}
		return false
	})
	return equal
}

// Validate checks the structural invariants: references resolve, each id
// sits exactly once in the paint order of its level, parent links agree with
// child lists, and there are no containment cycles.
func (d Diagram) Validate() error {
	placed := make(map[ID]ID, d.Len())
	place := func(id, parent ID) error {
		if prev, dup := placed[id]; dup {
			return fmt.Errorf("%w: %s listed under %q and %q", ErrDuplicateID, id, prev, parent)
		}
		s, ok := d.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s referenced by %q", ErrNotFound, id, parent)
		}
		if s.parent != parent {
			return fmt.Errorf("%w: %s has parent %q but is listed under %q", ErrInvalidOperation, id, s.parent, parent)
		}
		placed[id] = parent
		return nil
	}

	for _, id := range d.order {
		if err := place(id, ""); err != nil {
			return err
		}
	}

	var err error
	d.tree().Root().Walk(func(k []byte, s *Shape) bool {
		if ID(k) != s.id {
			err = fmt.Errorf("%w: key %s holds shape %s", ErrInvalidOperation, k, s.id)
			return true
		}
		if !s.IsGroup() && len(s.children) > 0 {
			err = fmt.Errorf("%w: leaf %s has children", ErrInvalidOperation, s.id)
			return true
		}
		for _, c := range s.children {
			if c == s.id {
				err = fmt.Errorf("%w: %s contains itself", ErrCycleRejected, s.id)
				return true
			}
			if err = place(c, s.id); err != nil {
				return true
			}
		}
		return false
	})
	if err != nil {
		return err
	}

	for _, id := range d.IDs() {
		if _, ok := placed[id]; !ok {
			return fmt.Errorf("%w: %s is not in any paint order", ErrInvalidOperation, id)
		}
	}

	reached := 0
	d.Walk(func(*Shape, int) bool {
		reached++
		return true
	})
	if reached != d.Len() {
		return fmt.Errorf("%w: %d shapes are unreachable from the root", ErrCycleRejected, d.Len()-reached)
	}
	return nil
}

// Build assembles a diagram from a root order and a flat list of shapes whose
// parent and child references are already set, then validates it.
func Build(order []ID, shapes []*Shape) (Diagram, error) {
	txn := iradix.New[*Shape]().Txn()
	for _, s := range shapes {
		if _, dup := txn.Get([]byte(s.id)); dup {
			return Diagram{}, fmt.Errorf("%w: %s", ErrDuplicateID, s.id)
		}
		txn.Insert([]byte(s.id), s)
	}
	d := Diagram{order: slices.Clone(order), shapes: txn.Commit()}
	if err := d.Validate(); err != nil {
		return Diagram{}, err
	}
	return d, nil
}
