// Package selection tracks the selected ids of a diagram and derives which
// operations apply to them.
package selection

import (
	"slices"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/geom"
)

// Selection is an ordered set of ids that existed in the diagram it was built
// against. The zero value is the empty selection.
type Selection struct {
	ids []document.ID
}

// Select keeps the ids present in d, in the given order, without duplicates.
// Stale ids are dropped silently.
func Select(d document.Diagram, ids []document.ID) Selection {
	out := make([]document.ID, 0, len(ids))
	for _, id := range ids {
		if d.Has(id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return Selection{ids: out}
}

// All selects every root-level shape.
func All(d document.Diagram) Selection {
	return Selection{ids: d.RootOrder()}
}

func (s Selection) IDs() []document.ID { return slices.Clone(s.ids) }
func (s Selection) Len() int { return len(s.ids) }
func (s Selection) IsEmpty() bool { return len(s.ids) == 0 }

// IsSingle gates panels that edit exactly one shape.
func (s Selection) IsSingle() bool { return len(s.ids) == 1 }

func (s Selection) Contains(id document.ID) bool { return slices.Contains(s.ids, id) }

func (s Selection) Equal(other Selection) bool { return slices.Equal(s.ids, other.ids) }

// Prune drops ids that no longer exist in d.
func (s Selection) Prune(d document.Diagram) Selection {
	if !slices.ContainsFunc(s.ids, func(id document.ID) bool { return !d.Has(id) }) {
		return s
	}
	return Select(d, s.ids)
}

// TopLevel returns the selected ids that have no selected ancestor.
func (s Selection) TopLevel(d document.Diagram) []document.ID {
	return d.TopLevel(s.ids)
}

// BoundingBox is the aggregate box of the selection. ok is false when nothing
// is selected.
func BoundingBox(d document.Diagram, s Selection) (geom.Rect, bool) {
	ids := s.TopLevel(d)
	if len(ids) == 0 {
		return geom.Rect{}, false
	}
	return d.BoundingBoxOf(ids), true
}

// Capabilities lists the operations valid for a selection.
type Capabilities struct {
	CanAlign      bool `json:"canAlign"`
	CanDistribute bool `json:"canDistribute"`
	CanGroup      bool `json:"canGroup"`
	CanUngroup    bool `json:"canUngroup"`
	CanOrder      bool `json:"canOrder"`
	CanCopy       bool `json:"canCopy"`
	CanDelete     bool `json:"canDelete"`
	CanEditProps  bool `json:"canEditProperties"`
}

// CapabilitiesOf derives the valid operations from the selection.
func CapabilitiesOf(d document.Diagram, s Selection) Capabilities {
	top := s.TopLevel(d)
	n := len(top)

	sameParent := n >= 2
	for _, id := range top {
		if d.ParentOf(id) != d.ParentOf(top[0]) {
			sameParent = false
			break
		}
	}
	hasGroup := slices.ContainsFunc(top, func(id document.ID) bool {
		sh, ok := d.Get(id)
		return ok && sh.IsGroup()
	})

	return Capabilities{
		CanAlign:      n >= 2,
		CanDistribute: n >= 3,
		CanGroup:      sameParent,
		CanUngroup:    hasGroup,
		CanOrder:      n > 0,
		CanCopy:       n > 0,
		CanDelete:     n > 0,
		CanEditProps:  s.IsSingle(),
	}
}
