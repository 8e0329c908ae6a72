package editor

import (
	"errors"
	"fmt"

	"github.com/mydraft/mydraft/backend-go/internal/arrange"
	"github.com/mydraft/mydraft/backend-go/internal/clipboard"
	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/geom"
	"github.com/mydraft/mydraft/backend-go/internal/renderer"
	"github.com/mydraft/mydraft/backend-go/internal/selection"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

// Dispatch runs one intent. Outside a transaction a diagram change becomes one
// history entry (or extends the pending coalesced one); inside a transaction
// it only updates the working diagram.
//
// Stale ids and invalid operations are absorbed: they are logged at debug
// level and leave the state untouched. Only an unknown intent is an error.
func (s *Store) Dispatch(in Intent) error {
	switch in := in.(type) {
	case Undo:
		s.undo()
		return nil
	case Redo:
		s.redo()
		return nil
	case Select:
		s.selection = selection.Select(s.diagram, in.IDs)
		return nil
	case SelectAll:
		s.selection = selection.All(s.diagram)
		return nil
	case SelectTab:
		ui, err := s.ui.SelectTab(in.Key)
		if err != nil {
			s.absorb(in, err)
			return nil
		}
		s.ui = ui
		return nil
	case ToggleSidebar:
		switch in.Side {
		case "left":
			s.ui = s.ui.ToggleLeftSidebar()
		case "right":
			s.ui = s.ui.ToggleRightSidebar()
		default:
			s.absorb(in, fmt.Errorf("%w: sidebar %q", document.ErrInvalidOperation, in.Side))
		}
		return nil
	case Copy:
		s.copySelection()
		return nil
	}

	next, sel, label, err := s.reduce(in)
	if errors.Is(err, ErrUnknownIntent) {
		return err
	}
	if err != nil {
		s.absorb(in, err)
		return nil
	}
	s.record(in, next, sel, label)
	return nil
}

// reduce computes the next diagram and selection for a diagram intent.
func (s *Store) reduce(in Intent) (document.Diagram, selection.Selection, string, error) {
	d, cur := s.diagram, s.selection
	reg, gen := s.opts.Registry, s.opts.IDs

	switch in := in.(type) {
	case AddShape:
		tr, err := reg.DefaultTransform(in.Type, geom.Point{X: in.X, Y: in.Y})
		if err != nil {
			return d, cur, "", err
		}
		props, err := reg.DefaultProperties(in.Type)
		if err != nil {
			return d, cur, "", err
		}
		id := document.FreshID(gen, d, typeid.PrefixShape)
		next, err := d.Add(document.NewShape(id, in.Type, tr, props), "", -1)
		if err != nil {
			return d, cur, "", err
		}
		return next, selection.Select(next, []document.ID{id}), "Add " + in.Type, nil

	case MoveSelection:
		return arrange.Move(d, cur, in.DX, in.DY), cur, "Move", nil

	case Nudge:
		return arrange.Nudge(d, cur, in.DX, in.DY, s.opts.GridSize), cur, "Move", nil

	case Rotate:
		return arrange.Rotate(d, cur, in.Degrees), cur, "Rotate", nil

	case ResizeShape:
		sh, err := d.Resolve(in.ID)
		if err != nil {
			return d, cur, "", err
		}
		box := reg.Constrain(sh.Type(), sh.Transform().Box(), in.Box)
		next, err := d.Resize(in.ID, box)
		return next, cur, "Resize", err

	case SetProperty:
		sh, err := d.Resolve(in.ID)
		if err != nil {
			return d, cur, "", err
		}
		// Undeclared keys are custom properties; declared ones must fit the schema.
		if in.Value.Kind == document.KindColor && !document.ValidColor(in.Value.Text) {
			return d, cur, "", fmt.Errorf("%w: %q is not a color", document.ErrInvalidOperation, in.Value.Text)
		}
		if schema, err := reg.PropertySchema(sh.Type(), in.Key); err == nil && !schema.Accepts(in.Value) {
			return d, cur, "", fmt.Errorf("%w: %s rejects %v", document.ErrInvalidOperation, in.Key, in.Value.Raw())
		} else if err != nil && !errors.Is(err, renderer.ErrUnknownShapeType) && !errors.Is(err, document.ErrInvalidOperation) {
			return d, cur, "", err
		}
		next, err := d.WithProperty(in.ID, in.Key, in.Value)
		return next, cur, "Change " + in.Key, err

	case Align:
		next, err := arrange.Align(d, cur, in.Mode)
		return next, cur, "Align", err

	case Distribute:
		next, err := arrange.Distribute(d, cur, in.Axis)
		return next, cur, "Distribute", err

	case Order:
		next, err := arrange.Order(d, cur, in.Mode)
		return next, cur, "Order", err

	case Group:
		next, id, err := arrange.Group(d, cur, gen)
		if err != nil {
			return d, cur, "", err
		}
		return next, selection.Select(next, []document.ID{id}), "Group", nil

	case Ungroup:
		next, released, err := arrange.Ungroup(d, cur)
		if err != nil {
			return d, cur, "", err
		}
		return next, selection.Select(next, released), "Ungroup", nil

	case Delete:
		ids := cur.TopLevel(d)
		if len(ids) == 0 {
			return d, cur, "", fmt.Errorf("%w: nothing selected", document.ErrInvalidOperation)
		}
		return d.RemoveMany(ids), selection.Selection{}, "Delete", nil

	case Cut:
		ids := cur.TopLevel(d)
		if len(ids) == 0 {
			return d, cur, "", fmt.Errorf("%w: nothing selected", document.ErrInvalidOperation)
		}
		s.copySelection()
		return d.RemoveMany(ids), selection.Selection{}, "Cut", nil

	case Paste:
		if !s.hasClip {
			return d, cur, "", fmt.Errorf("%w: clipboard is empty", document.ErrInvalidOperation)
		}
		s.pasteRuns++
		next, sel, err := clipboard.Paste(d, s.clip, s.opts.PasteOffset*float64(s.pasteRuns), gen)
		return next, sel, "Paste", err

	case Duplicate:
		if cur.IsEmpty() {
			return d, cur, "", fmt.Errorf("%w: nothing selected", document.ErrInvalidOperation)
		}
		next, sel, err := clipboard.Duplicate(d, cur, s.opts.DuplicateOffset, gen)
		return next, sel, "Duplicate", err
	}
	return d, cur, "", fmt.Errorf("%w: %T", ErrUnknownIntent, in)
}

// record publishes a reduced state, writing history outside transactions.
func (s *Store) record(in Intent, next document.Diagram, sel selection.Selection, label string) {
	if s.mode == Transacting || next.Equal(s.diagram) {
		s.setDiagram(next)
		s.selection = sel.Prune(s.diagram)
		return
	}

	key := coalesceKey(in, s.selection.IDs())
	now := s.opts.Now()
	if p := s.pending; key != "" && p != nil && p.key == key && s.opts.CoalesceWindow > 0 &&
		now.Sub(p.last) <= s.opts.CoalesceWindow && p.steps < s.opts.CoalesceMaxSteps {
		s.history.Replace(next, label)
		p.steps++
		p.last = now
	} else {
		s.history.Commit(next, label)
		s.pending = nil
		if key != "" {
			s.pending = &pending{key: key, steps: 1, last: now}
		}
	}
	s.setDiagram(next)
	s.selection = sel.Prune(next)
}

func (s *Store) undo() {
	if s.mode == Transacting {
		_ = s.Cancel()
		return
	}
	s.Flush()
	d, ok := s.history.Undo()
	if !ok {
		s.absorb(Undo{}, fmt.Errorf("%w: nothing to undo", document.ErrInvalidOperation))
		return
	}
	s.setDiagram(d)
}

func (s *Store) redo() {
	if s.mode == Transacting {
		s.absorb(Redo{}, ErrAlreadyTransacting)
		return
	}
	s.Flush()
	d, ok := s.history.Redo()
	if !ok {
		s.absorb(Redo{}, fmt.Errorf("%w: nothing to redo", document.ErrInvalidOperation))
		return
	}
	s.setDiagram(d)
}

func (s *Store) copySelection() {
	p := clipboard.Copy(s.diagram, s.selection)
	if p.IsEmpty() {
		s.absorb(Copy{}, fmt.Errorf("%w: nothing selected", document.ErrInvalidOperation))
		return
	}
	s.clip, s.hasClip, s.pasteRuns = p, true, 0
}

// Clipboard returns the last copied payload.
func (s *Store) Clipboard() (clipboard.Payload, bool) {
	return s.clip, s.hasClip
}

// SetClipboard installs a payload read from the system clipboard.
func (s *Store) SetClipboard(p clipboard.Payload) {
	s.clip, s.hasClip, s.pasteRuns = p, !p.IsEmpty(), 0
}

func (s *Store) absorb(in Intent, err error) {
	s.log.Debug("intent absorbed", "intent", in.Kind(), "error", err)
	switch in.(type) {
	case SelectTab, ToggleSidebar, Copy:
	default:
		s.absorbed++
	}
}
