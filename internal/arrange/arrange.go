// Package arrange holds the pure layout operations of the editor: align,
// distribute, z-order, grouping and selection transforms.
package arrange

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/geom"
	"github.com/mydraft/mydraft/backend-go/internal/selection"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

type AlignMode string

const (
	AlignLeft             AlignMode = "left"
	AlignRight            AlignMode = "right"
	AlignTop              AlignMode = "top"
	AlignBottom           AlignMode = "bottom"
	AlignCenterHorizontal AlignMode = "center-horizontal"
	AlignCenterVertical   AlignMode = "center-vertical"
)

type Axis string

const (
	Horizontal Axis = "horizontal"
	Vertical   Axis = "vertical"
)

type OrderMode string

const (
	OrderFront    OrderMode = "front"
	OrderBack     OrderMode = "back"
	OrderForward  OrderMode = "forward"
	OrderBackward OrderMode = "backward"
)

// Align moves every selected top-level shape so that its edge or center meets
// the matching line of the selection's aggregate box.
func Align(d document.Diagram, sel selection.Selection, mode AlignMode) (document.Diagram, error) {
	ids := sel.TopLevel(d)
	if len(ids) < 2 {
		return d, fmt.Errorf("%w: align needs two shapes, got %d", document.ErrInvalidOperation, len(ids))
	}
	ref := d.BoundingBoxOf(ids)

	var delta func(b geom.Rect) (float64, float64)
	switch mode {
	case AlignLeft:
		delta = func(b geom.Rect) (float64, float64) { return ref.Left() - b.Left(), 0 }
	case AlignRight:
		delta = func(b geom.Rect) (float64, float64) { return ref.Right() - b.Right(), 0 }
	case AlignTop:
		delta = func(b geom.Rect) (float64, float64) { return 0, ref.Top() - b.Top() }
	case AlignBottom:
		delta = func(b geom.Rect) (float64, float64) { return 0, ref.Bottom() - b.Bottom() }
	case AlignCenterHorizontal:
		delta = func(b geom.Rect) (float64, float64) { return ref.Center().X - b.Center().X, 0 }
	case AlignCenterVertical:
		delta = func(b geom.Rect) (float64, float64) { return 0, ref.Center().Y - b.Center().Y }
	default:
		return d, fmt.Errorf("%w: align mode %q", document.ErrInvalidOperation, mode)
	}

	next := d
	for _, id := range ids {
		dx, dy := delta(d.BoundingBox(id))
		next = next.TranslateMany([]document.ID{id}, dx, dy)
	}
	return next, nil
}

// Distribute spaces the selected shapes with equal gaps along axis. The
// shapes with the smallest and largest centers stay where they are; ties keep
// selection order.
func Distribute(d document.Diagram, sel selection.Selection, axis Axis) (document.Diagram, error) {
	ids := sel.TopLevel(d)
	if len(ids) < 3 {
		return d, fmt.Errorf("%w: distribute needs three shapes, got %d", document.ErrInvalidOperation, len(ids))
	}

	type item struct {
		id     document.ID
		start  float64
		extent float64
	}
	items := make([]item, len(ids))
	for i, id := range ids {
		b := d.BoundingBox(id)
		switch axis {
		case Horizontal:
			items[i] = item{id: id, start: b.X, extent: b.Width}
		case Vertical:
			items[i] = item{id: id, start: b.Y, extent: b.Height}
		default:
			return d, fmt.Errorf("%w: distribute axis %q", document.ErrInvalidOperation, axis)
		}
	}
	slices.SortStableFunc(items, func(a, b item) int {
		return cmp.Compare(a.start+a.extent/2, b.start+b.extent/2)
	})

	first, last := items[0], items[len(items)-1]
	span := last.start + last.extent - first.start
	var total float64
	for _, it := range items {
		total += it.extent
	}
	gap := (span - total) / float64(len(items)-1)

	next := d
	pos := first.start + first.extent + gap
	for _, it := range items[1 : len(items)-1] {
		shift := pos - it.start
		if axis == Horizontal {
			next = next.TranslateMany([]document.ID{it.id}, shift, 0)
		} else {
			next = next.TranslateMany([]document.ID{it.id}, 0, shift)
		}
		pos += it.extent + gap
	}
	return next, nil
}

// Order rewrites the paint order of every nesting level that holds selected
// shapes. Moves past either end are clamped.
func Order(d document.Diagram, sel selection.Selection, mode OrderMode) (document.Diagram, error) {
	ids := sel.TopLevel(d)
	if len(ids) == 0 {
		return d, fmt.Errorf("%w: nothing selected", document.ErrInvalidOperation)
	}
	selected := make(map[document.ID]bool, len(ids))
	var levels []document.ID
	for _, id := range ids {
		selected[id] = true
		if p := d.ParentOf(id); !slices.Contains(levels, p) {
			levels = append(levels, p)
		}
	}

	next := d
	for _, parent := range levels {
		seq := d.Level(parent)
		var reordered []document.ID
		switch mode {
		case OrderFront, OrderBack:
			var picked, rest []document.ID
			for _, id := range seq {
				if selected[id] {
					picked = append(picked, id)
				} else {
					rest = append(rest, id)
				}
			}
			if mode == OrderFront {
				reordered = append(rest, picked...)
			} else {
				reordered = append(picked, rest...)
			}
		case OrderForward:
			reordered = slices.Clone(seq)
			for i := len(reordered) - 2; i >= 0; i-- {
				if selected[reordered[i]] && !selected[reordered[i+1]] {
					reordered[i], reordered[i+1] = reordered[i+1], reordered[i]
				}
			}
		case OrderBackward:
			reordered = slices.Clone(seq)
			for i := 1; i < len(reordered); i++ {
				if selected[reordered[i]] && !selected[reordered[i-1]] {
					reordered[i], reordered[i-1] = reordered[i-1], reordered[i]
				}
			}
		default:
			return d, fmt.Errorf("%w: order mode %q", document.ErrInvalidOperation, mode)
		}

		var err error
		if next, err = next.SetSiblingOrder(parent, reordered); err != nil {
			return d, err
		}
	}
	return next, nil
}

// Group wraps the selected top-level shapes into a new group. They must share
// one parent.
func Group(d document.Diagram, sel selection.Selection, gen typeid.Generator) (document.Diagram, document.ID, error) {
	ids := sel.TopLevel(d)
	if len(ids) < 2 {
		return d, "", fmt.Errorf("%w: group needs two shapes, got %d", document.ErrInvalidOperation, len(ids))
	}
	id := document.FreshID(gen, d, typeid.PrefixGroup)
	next, err := d.Wrap(id, ids)
	if err != nil {
		return d, "", err
	}
	return next, id, nil
}

// Ungroup dissolves every selected group one level deep and returns the
// released children. Selected leaves are ignored.
func Ungroup(d document.Diagram, sel selection.Selection) (document.Diagram, []document.ID, error) {
	next := d
	var released []document.ID
	for _, id := range sel.TopLevel(d) {
		s, ok := next.Get(id)
		if !ok || !s.IsGroup() {
			continue
		}
		var children []document.ID
		var err error
		if next, children, err = next.Unwrap(id); err != nil {
			return d, nil, err
		}
		released = append(released, children...)
	}
	if len(released) == 0 && next.Equal(d) {
		return d, nil, fmt.Errorf("%w: no group selected", document.ErrInvalidOperation)
	}
	return next, released, nil
}

// Reparent moves id under parent at index.
func Reparent(d document.Diagram, id, parent document.ID, index int) (document.Diagram, error) {
	return d.Reparent(id, parent, index)
}

// Move translates the selection by (dx, dy).
func Move(d document.Diagram, sel selection.Selection, dx, dy float64) document.Diagram {
	return d.TranslateMany(sel.IDs(), dx, dy)
}

// Nudge translates the selection by (dx, dy). With a positive grid the
// selection's top-left corner lands on the grid.
func Nudge(d document.Diagram, sel selection.Selection, dx, dy, grid float64) document.Diagram {
	box, ok := selection.BoundingBox(d, sel)
	if !ok {
		return d
	}
	if grid > 0 {
		target := geom.SnapPoint(geom.Point{X: box.X + dx, Y: box.Y + dy}, grid)
		dx, dy = target.X-box.X, target.Y-box.Y
	}
	return Move(d, sel, dx, dy)
}

// Rotate turns each selected top-level shape around its own center.
func Rotate(d document.Diagram, sel selection.Selection, degrees float64) document.Diagram {
	next := d
	for _, id := range sel.TopLevel(d) {
		if r, err := next.Rotate(id, degrees); err == nil {
			next = r
		}
	}
	return next
}
