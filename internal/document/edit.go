package document

import (
	"slices"

	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/mydraft/mydraft/backend-go/internal/geom"
)

// batch groups several changes into one radix transaction. Only the touched
// paths are copied; the root order is replaced, never written in place.
type batch struct {
	txn   *iradix.Txn[*Shape]
	order []ID
}

func (d Diagram) edit() *batch {
	return &batch{
		txn:   d.tree().Txn(),
		order: d.order,
	}
}

func (e *batch) commit() Diagram {
	return Diagram{order: e.order, shapes: e.txn.Commit()}
}

func (e *batch) get(id ID) (*Shape, bool) {
	return e.txn.Get([]byte(id))
}

func (e *batch) put(s *Shape) {
	e.txn.Insert([]byte(s.id), s)
}

func (e *batch) del(id ID) {
	e.txn.Delete([]byte(id))
}

func (e *batch) level(parent ID) []ID {
	if parent == "" {
		return e.order
	}
	if p, ok := e.get(parent); ok {
		return p.children
	}
	return nil
}

func (e *batch) setLevel(parent ID, ids []ID) {
	if parent == "" {
		e.order = ids
		return
	}
	if p, ok := e.get(parent); ok {
		e.put(p.WithChildren(ids))
	}
}

// detach removes id from the sequence of its current parent and returns the
// index it occupied.
func (e *batch) detach(s *Shape) int {
	seq := e.level(s.parent)
	i := slices.Index(seq, s.id)
	if i >= 0 {
		e.setLevel(s.parent, slices.Delete(slices.Clone(seq), i, i+1))
	}
	return i
}

// attach inserts id into parent's sequence at index (clamped to append).
func (e *batch) attach(id, parent ID, index int) {
	e.setLevel(parent, insertAt(e.level(parent), id, index))
}

// boxOf is the box a node contributes to its parent's union. A group
// contributes the extent of its descendants, not its stored box, which may
// carry a rotation of its own.
func (e *batch) boxOf(id ID) geom.Rect {
	s, ok := e.get(id)
	if !ok {
		return geom.Rect{}
	}
	if !s.IsGroup() {
		return s.Bounds()
	}
	var box geom.Rect
	for _, c := range s.children {
		box = box.Union(e.boxOf(c))
	}
	return box
}

// refreshFrom recomputes the stored box of group and of each of its
// ancestors from their children.
func (e *batch) refreshFrom(group ID) {
	seen := make(map[ID]bool)
	for cur := group; cur != "" && !seen[cur]; {
		seen[cur] = true
		g, ok := e.get(cur)
		if !ok || !g.IsGroup() {
			return
		}
		var box geom.Rect
		for _, c := range g.children {
			box = box.Union(e.boxOf(c))
		}
		if box != g.transform.Box() {
			e.put(g.WithTransform(g.transform.WithBox(box)))
		}
		cur = g.parent
	}
}

// translate moves id and its whole subtree.
func (e *batch) translate(id ID, dx, dy float64) {
	s, ok := e.get(id)
	if !ok {
		return
	}
	e.put(s.WithTransform(s.transform.Translate(dx, dy)))
	for _, c := range s.children {
		e.translate(c, dx, dy)
	}
}

// scale maps the subtree of id from one frame into another.
func (e *batch) scale(id ID, from, to geom.Rect) {
	s, ok := e.get(id)
	if !ok {
		return
	}
	e.put(s.WithTransform(s.transform.WithBox(s.transform.Box().Scale(from, to))))
	for _, c := range s.children {
		e.scale(c, from, to)
	}
}

// rotate turns the subtree of id by deg degrees around pivot.
func (e *batch) rotate(id ID, deg float64, pivot geom.Point) {
	s, ok := e.get(id)
	if !ok {
		return
	}
	if s.IsGroup() {
		var box geom.Rect
		for _, c := range s.children {
			e.rotate(c, deg, pivot)
			box = box.Union(e.boxOf(c))
		}
		t := s.transform.WithBox(box)
		t.Rotation += deg
		e.put(s.WithTransform(t))
		return
	}
	box := s.transform.Box()
	c := geom.Translate(pivot.X, pivot.Y).
		Multiply(geom.RotateDegrees(deg)).
		Multiply(geom.Translate(-pivot.X, -pivot.Y)).
		TransformPoint(box.Center())
	moved := geom.Rect{X: c.X - box.Width/2, Y: c.Y - box.Height/2, Width: box.Width, Height: box.Height}
	t := s.transform.WithBox(moved)
	t.Rotation += deg
	e.put(s.WithTransform(t))
}

// removeSubtree deletes id and everything below it from the index.
func (e *batch) removeSubtree(id ID) {
	s, ok := e.get(id)
	if !ok {
		return
	}
	for _, c := range s.children {
		e.removeSubtree(c)
	}
	e.del(id)
}
