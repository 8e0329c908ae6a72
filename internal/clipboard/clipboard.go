// Package clipboard copies diagram fragments and pastes them back with fresh
// identities.
package clipboard

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
	"github.com/mydraft/mydraft/backend-go/internal/selection"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

// DefaultOffset keeps pasted shapes from covering their source exactly.
const DefaultOffset = 20.0

// Payload is a parent-independent diagram fragment. Roots lists the fragment
// roots in paint order; Shapes holds every copied node, parents before
// children.
type Payload struct {
	ID     uuid.UUID
	Roots  []document.ID
	Shapes []*document.Shape
}

// IsEmpty reports whether the payload holds nothing to paste.
func (p Payload) IsEmpty() bool { return len(p.Roots) == 0 }

// Copy captures the selected top-level shapes with all their descendants. The
// roots are listed in diagram paint order.
func Copy(d document.Diagram, sel selection.Selection) Payload {
	picked := make(map[document.ID]bool)
	for _, id := range sel.TopLevel(d) {
		picked[id] = true
	}
	p := Payload{ID: uuid.New()}
	if len(picked) == 0 {
		return p
	}
	d.Walk(func(s *document.Shape, _ int) bool {
		if !picked[s.ID()] {
			return true
		}
		p.Roots = append(p.Roots, s.ID())
		p.Shapes = append(p.Shapes, s.WithParent(""))
		for _, id := range d.Descendants(s.ID()) {
			if c, ok := d.Get(id); ok {
				p.Shapes = append(p.Shapes, c)
			}
		}
		return true
	})
	return p
}

// Paste inserts the payload with a fresh id for every node, moves the roots
// by (offset, offset) and appends them to the root paint order. The returned
// selection holds the new roots.
func Paste(d document.Diagram, p Payload, offset float64, gen typeid.Generator) (document.Diagram, selection.Selection, error) {
	if p.IsEmpty() {
		return d, selection.Selection{}, nil
	}

	remap := make(map[document.ID]document.ID, len(p.Shapes))
	for _, s := range p.Shapes {
		prefix := typeid.PrefixShape
		if s.IsGroup() {
			prefix = typeid.PrefixGroup
		}
		remap[s.ID()] = document.FreshID(gen, d, prefix)
	}

	nodes := make([]*document.Shape, 0, len(p.Shapes))
	for _, s := range p.Shapes {
		c := s.WithID(remap[s.ID()])
		if s.IsGroup() {
			children := s.Children()
			for i, child := range children {
				children[i] = remap[child]
			}
			c = c.WithChildren(children)
		}
		c = c.WithTransform(c.Transform().Translate(offset, offset))
		nodes = append(nodes, c)
	}

	// Roots first, in their copied paint order.
	ordered := make([]*document.Shape, 0, len(nodes))
	isRoot := make(map[document.ID]bool, len(p.Roots))
	for _, r := range p.Roots {
		isRoot[remap[r]] = true
	}
	for _, n := range nodes {
		if isRoot[n.ID()] {
			ordered = append(ordered, n)
		}
	}
	for _, n := range nodes {
		if !isRoot[n.ID()] {
			ordered = append(ordered, n)
		}
	}

	next, err := d.Graft(ordered, "", -1)
	if err != nil {
		return d, selection.Selection{}, fmt.Errorf("paste: %w", err)
	}
	roots := make([]document.ID, len(p.Roots))
	for i, r := range p.Roots {
		roots[i] = remap[r]
	}
	return next, selection.Select(next, roots), nil
}

// Duplicate copies the selection and pastes it straight back.
func Duplicate(d document.Diagram, sel selection.Selection, offset float64, gen typeid.Generator) (document.Diagram, selection.Selection, error) {
	return Paste(d, Copy(d, sel), offset, gen)
}

type payloadJSON struct {
	ID     uuid.UUID             `json:"id"`
	Roots  []string              `json:"roots"`
	Shapes []persist.ShapeRecord `json:"shapes"`
}

// Marshal encodes the payload for the system clipboard.
func (p Payload) Marshal() ([]byte, error) {
	out := payloadJSON{ID: p.ID}
	for _, r := range p.Roots {
		out.Roots = append(out.Roots, string(r))
	}
	for _, s := range p.Shapes {
		out.Shapes = append(out.Shapes, persist.RecordOf(s))
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal clipboard: %w", err)
	}
	return data, nil
}

// UnmarshalPayload decodes a payload written by Marshal.
func UnmarshalPayload(data []byte) (Payload, error) {
	var in payloadJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", persist.ErrCorrupt, err)
	}
	p := Payload{ID: in.ID}
	known := make(map[document.ID]bool, len(in.Shapes))
	for _, rec := range in.Shapes {
		s, err := persist.ShapeOf(rec)
		if err != nil {
			return Payload{}, err
		}
		known[s.ID()] = true
		p.Shapes = append(p.Shapes, s)
	}
	for _, r := range in.Roots {
		if !known[document.ID(r)] {
			return Payload{}, fmt.Errorf("%w: clipboard root %s has no shape", persist.ErrCorrupt, r)
		}
		p.Roots = append(p.Roots, document.ID(r))
	}
	return p, nil
}
