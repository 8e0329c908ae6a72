package document

import (
	"fmt"
	"slices"

	"github.com/mydraft/mydraft/backend-go/internal/geom"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

// FreshID draws ids from gen until one is unused in d.
func FreshID(gen typeid.Generator, d Diagram, prefix string) ID {
	for {
		id := ID(gen.Next(prefix))
		if !d.Has(id) {
			return id
		}
	}
}

// WithTransform replaces the transform of id. For a group the descendants are
// scaled from the old box into the new one and turned by the rotation delta,
// and the group keeps t as given.
func (d Diagram) WithTransform(id ID, t Transform) (Diagram, error) {
	s, err := d.Resolve(id)
	if err != nil {
		return d, err
	}
	t = t.Normalized()
	if s.transform == t {
		return d, nil
	}

	e := d.edit()
	if s.IsGroup() {
		from, to := s.transform.Box(), t.Box()
		if from != to {
			for _, c := range s.children {
				e.scale(c, from, to)
			}
		}
		if delta := t.Rotation - s.transform.Rotation; delta != 0 {
			for _, c := range s.children {
				e.rotate(c, delta, to.Center())
			}
		}
		cur, _ := e.get(id)
		e.put(cur.WithTransform(t))
	} else {
		e.put(s.WithTransform(t))
	}
	e.refreshFrom(s.parent)
	return e.commit(), nil
}

// WithProperty sets key on id.
func (d Diagram) WithProperty(id ID, key string, v Value) (Diagram, error) {
	s, err := d.Resolve(id)
	if err != nil {
		return d, err
	}
	if cur, ok := s.props.Get(key); ok && cur == v {
		return d, nil
	}
	e := d.edit()
	e.put(s.WithProperty(key, v))
	return e.commit(), nil
}

// Add inserts a leaf shape (or an empty group) under parent at index. An
// index that is negative or past the end appends.
func (d Diagram) Add(s *Shape, parent ID, index int) (Diagram, error) {
	if s == nil || s.id == "" {
		return d, fmt.Errorf("%w: shape without id", ErrInvalidOperation)
	}
	if len(s.children) > 0 {
		return d, fmt.Errorf("%w: %s already has children, use Graft", ErrInvalidOperation, s.id)
	}
	return d.Graft([]*Shape{s.WithParent(parent)}, parent, index)
}

// Graft inserts a self-contained fragment. Nodes whose parent is not part of
// the fragment are the fragment roots; they are placed under parent starting
// at index, in the order given. Every id must be new to d and every child
// reference must resolve inside the fragment.
func (d Diagram) Graft(nodes []*Shape, parent ID, index int) (Diagram, error) {
	if len(nodes) == 0 {
		return d, nil
	}
	if parent != "" {
		p, err := d.Resolve(parent)
		if err != nil {
			return d, err
		}
		if !p.IsGroup() {
			return d, fmt.Errorf("%w: %s is not a group", ErrInvalidOperation, parent)
		}
	}

	inFragment := make(map[ID]bool, len(nodes))
	for _, n := range nodes {
		if d.Has(n.id) || inFragment[n.id] {
			return d, fmt.Errorf("%w: %s", ErrDuplicateID, n.id)
		}
		inFragment[n.id] = true
	}
	childOf := make(map[ID]ID, len(nodes))
	for _, n := range nodes {
		if !n.IsGroup() && len(n.children) > 0 {
			return d, fmt.Errorf("%w: leaf %s has children", ErrInvalidOperation, n.id)
		}
		for _, c := range n.children {
			if !inFragment[c] {
				return d, fmt.Errorf("%w: %s referenced by %s", ErrNotFound, c, n.id)
			}
			if _, dup := childOf[c]; dup || c == n.id {
				return d, fmt.Errorf("%w: %s placed twice", ErrDuplicateID, c)
			}
			childOf[c] = n.id
		}
	}

	e := d.edit()
	var roots []ID
	for _, n := range nodes {
		if owner, ok := childOf[n.id]; ok {
			e.put(n.WithParent(owner))
			continue
		}
		e.put(n.WithParent(parent))
		roots = append(roots, n.id)
	}

	seq := slices.Clone(e.level(parent))
	if index < 0 || index > len(seq) {
		index = len(seq)
	}
	e.setLevel(parent, slices.Insert(seq, index, roots...))

	// Every refresh walks to the root, so any group order ends consistent.
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].IsGroup() {
			e.refreshFrom(nodes[i].id)
		}
	}
	e.refreshFrom(parent)

	next := e.commit()
	if reached := countReachable(next, roots); reached != len(nodes) {
		return d, fmt.Errorf("%w: fragment holds %d unreachable nodes", ErrCycleRejected, len(nodes)-reached)
	}
	return next, nil
}

func countReachable(d Diagram, roots []ID) int {
	n := 0
	for _, r := range roots {
		n += 1 + len(d.Descendants(r))
	}
	return n
}

// Remove deletes id and its whole subtree. Unknown ids leave d unchanged.
// A group emptied this way stays in place.
func (d Diagram) Remove(id ID) Diagram {
	return d.RemoveMany([]ID{id})
}

// RemoveMany deletes several subtrees at once.
func (d Diagram) RemoveMany(ids []ID) Diagram {
	ids = d.TopLevel(ids)
	if len(ids) == 0 {
		return d
	}
	e := d.edit()
	parents := make([]ID, 0, len(ids))
	for _, id := range ids {
		s, ok := e.get(id)
		if !ok {
			continue
		}
		e.detach(s)
		e.removeSubtree(id)
		parents = append(parents, s.parent)
	}
	for _, p := range parents {
		e.refreshFrom(p)
	}
	return e.commit()
}

// Reparent moves id under parent at index ("" is the root level). Moving a
// node into itself or one of its descendants fails with ErrCycleRejected and
// leaves d unchanged.
func (d Diagram) Reparent(id, parent ID, index int) (Diagram, error) {
	s, err := d.Resolve(id)
	if err != nil {
		return d, err
	}
	if parent == id || (parent != "" && d.IsAncestor(id, parent)) {
		return d, fmt.Errorf("%w: %s into %s", ErrCycleRejected, id, parent)
	}
	if parent != "" {
		p, err := d.Resolve(parent)
		if err != nil {
			return d, err
		}
		if !p.IsGroup() {
			return d, fmt.Errorf("%w: %s is not a group", ErrInvalidOperation, parent)
		}
	}

	e := d.edit()
	e.detach(s)
	e.attach(id, parent, index)
	e.put(s.WithParent(parent))
	e.refreshFrom(s.parent)
	e.refreshFrom(parent)
	next := e.commit()
	if next.Equal(d) {
		return d, nil
	}
	return next, nil
}

// SetSiblingOrder replaces the paint order of the level owned by parent. ids
// must be a permutation of the current sequence.
func (d Diagram) SetSiblingOrder(parent ID, ids []ID) (Diagram, error) {
	if parent != "" && !d.Has(parent) {
		return d, fmt.Errorf("%w: %s", ErrNotFound, parent)
	}
	cur := d.Level(parent)
	if len(cur) != len(ids) {
		return d, fmt.Errorf("%w: order of %q has %d ids, got %d", ErrInvalidOperation, parent, len(cur), len(ids))
	}
	a, b := slices.Clone(cur), slices.Clone(ids)
	slices.Sort(a)
	slices.Sort(b)
	if !slices.Equal(a, b) {
		return d, fmt.Errorf("%w: order of %q is not a permutation", ErrInvalidOperation, parent)
	}
	if slices.Equal(cur, ids) {
		return d, nil
	}
	e := d.edit()
	e.setLevel(parent, slices.Clone(ids))
	return e.commit(), nil
}

// Translate moves id and its subtree by (dx, dy).
func (d Diagram) Translate(id ID, dx, dy float64) (Diagram, error) {
	if !d.Has(id) {
		return d, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d.TranslateMany([]ID{id}, dx, dy), nil
}

// TranslateMany moves every top-level id in ids by (dx, dy); unknown ids are
// skipped.
func (d Diagram) TranslateMany(ids []ID, dx, dy float64) Diagram {
	ids = d.TopLevel(ids)
	if len(ids) == 0 || (dx == 0 && dy == 0) {
		return d
	}
	e := d.edit()
	for _, id := range ids {
		e.translate(id, dx, dy)
	}
	for _, id := range ids {
		e.refreshFrom(d.ParentOf(id))
	}
	return e.commit()
}

// Resize gives id a new unrotated box, keeping its rotation.
func (d Diagram) Resize(id ID, box geom.Rect) (Diagram, error) {
	s, err := d.Resolve(id)
	if err != nil {
		return d, err
	}
	return d.WithTransform(id, s.transform.WithBox(box))
}

// Rotate turns id by deg degrees around its center.
func (d Diagram) Rotate(id ID, deg float64) (Diagram, error) {
	s, err := d.Resolve(id)
	if err != nil {
		return d, err
	}
	t := s.transform
	t.Rotation += deg
	return d.WithTransform(id, t)
}

// Wrap places the top-level ids into a new group groupID. The ids must share
// one parent. The group takes the paint position of the topmost member and
// holds the members in their current paint order.
func (d Diagram) Wrap(groupID ID, ids []ID) (Diagram, error) {
	ids = d.TopLevel(ids)
	if len(ids) == 0 {
		return d, fmt.Errorf("%w: nothing to group", ErrInvalidOperation)
	}
	if d.Has(groupID) {
		return d, fmt.Errorf("%w: %s", ErrDuplicateID, groupID)
	}
	parent := d.ParentOf(ids[0])
	for _, id := range ids[1:] {
		if d.ParentOf(id) != parent {
			return d, fmt.Errorf("%w: members do not share a parent", ErrInvalidOperation)
		}
	}

	member := make(map[ID]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}
	seq := d.Level(parent)
	var children, rest []ID
	top := -1
	for _, id := range seq {
		if member[id] {
			children = append(children, id)
			top = len(rest)
			continue
		}
		rest = append(rest, id)
	}

	e := d.edit()
	e.setLevel(parent, insertAt(rest, groupID, top))
	for _, c := range children {
		s, _ := e.get(c)
		e.put(s.WithParent(groupID))
	}
	g := NewGroup(groupID, children, Transform{}).WithParent(parent)
	e.put(g)
	e.refreshFrom(groupID)
	return e.commit(), nil
}

// Unwrap dissolves group id, splicing its children into the former parent's
// sequence at the group's position. Only one level is released.
func (d Diagram) Unwrap(id ID) (Diagram, []ID, error) {
	g, err := d.Resolve(id)
	if err != nil {
		return d, nil, err
	}
	if !g.IsGroup() {
		return d, nil, fmt.Errorf("%w: %s is not a group", ErrInvalidOperation, id)
	}

	e := d.edit()
	seq := e.level(g.parent)
	i := slices.Index(seq, id)
	next := slices.Clone(seq[:i])
	next = append(next, g.children...)
	next = append(next, seq[i+1:]...)
	e.setLevel(g.parent, next)
	for _, c := range g.children {
		s, _ := e.get(c)
		e.put(s.WithParent(g.parent))
	}
	e.del(id)
	e.refreshFrom(g.parent)
	return e.commit(), g.Children(), nil
}
