package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mydraft/mydraft/backend-go/internal/arrange"
	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/geom"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
)

var ErrUnknownIntent = errors.New("unknown intent")

// Intent is a request to change the diagram, the selection or the editor
// chrome.
type Intent interface {
	Kind() string
}

// Intent kinds as they appear on the wire.
const (
	KindAddShape      = "addShape"
	KindMoveSelection = "moveSelection"
	KindResizeShape   = "resizeShape"
	KindSetProperty   = "setProperty"
	KindAlign         = "align"
	KindDistribute    = "distribute"
	KindOrder         = "order"
	KindGroup         = "group"
	KindUngroup       = "ungroup"
	KindCopy          = "copy"
	KindCut           = "cut"
	KindPaste         = "paste"
	KindDuplicate     = "duplicate"
	KindDelete        = "delete"
	KindUndo          = "undo"
	KindRedo          = "redo"
	KindSelect        = "select"
	KindSelectAll     = "selectAll"
	KindSelectTab     = "selectTab"
	KindToggleSidebar = "toggleSidebar"
	KindRotate        = "rotate"
	KindNudge         = "nudge"
)

type AddShape struct {
	Type string  `json:"shapeType"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type MoveSelection struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type ResizeShape struct {
	ID  document.ID `json:"id"`
	Box geom.Rect   `json:"box"`
}

type SetProperty struct {
	ID    document.ID
	Key   string
	Value document.Value
}

type Align struct {
	Mode arrange.AlignMode `json:"mode"`
}

type Distribute struct {
	Axis arrange.Axis `json:"axis"`
}

type Order struct {
	Mode arrange.OrderMode `json:"mode"`
}

type Select struct {
	IDs []document.ID `json:"ids"`
}

type SelectTab struct {
	Key string `json:"key"`
}

// ToggleSidebar flips the "left" or "right" sidebar.
type ToggleSidebar struct {
	Side string `json:"side"`
}

type Rotate struct {
	Degrees float64 `json:"degrees"`
}

// Nudge moves the selection by a keyboard step, snapping to the grid.
type Nudge struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type (
	Group     struct{}
	Ungroup   struct{}
	Copy      struct{}
	Cut       struct{}
	Paste     struct{}
	Duplicate struct{}
	Delete    struct{}
	Undo      struct{}
	Redo      struct{}
	SelectAll struct{}
)

func (AddShape) Kind() string      { return KindAddShape }
func (MoveSelection) Kind() string { return KindMoveSelection }
func (ResizeShape) Kind() string   { return KindResizeShape }
func (SetProperty) Kind() string   { return KindSetProperty }
func (Align) Kind() string         { return KindAlign }
func (Distribute) Kind() string    { return KindDistribute }
func (Order) Kind() string         { return KindOrder }
func (Group) Kind() string         { return KindGroup }
func (Ungroup) Kind() string       { return KindUngroup }
func (Copy) Kind() string          { return KindCopy }
func (Cut) Kind() string           { return KindCut }
func (Paste) Kind() string         { return KindPaste }
func (Duplicate) Kind() string     { return KindDuplicate }
func (Delete) Kind() string        { return KindDelete }
func (Undo) Kind() string          { return KindUndo }
func (Redo) Kind() string          { return KindRedo }
func (Select) Kind() string        { return KindSelect }
func (SelectAll) Kind() string     { return KindSelectAll }
func (SelectTab) Kind() string     { return KindSelectTab }
func (ToggleSidebar) Kind() string { return KindToggleSidebar }
func (Rotate) Kind() string        { return KindRotate }
func (Nudge) Kind() string         { return KindNudge }

// coalesceKey groups intents that may share one history entry. Intents that
// never coalesce return "".
func coalesceKey(in Intent, sel []document.ID) string {
	ids := func(list []document.ID) string {
		parts := make([]string, len(list))
		for i, id := range list {
			parts[i] = string(id)
		}
		return strings.Join(parts, ",")
	}
	switch in := in.(type) {
	case MoveSelection:
		return "move:" + ids(sel)
	case Nudge:
		return "nudge:" + ids(sel)
	case ResizeShape:
		return "resize:" + string(in.ID)
	case SetProperty:
		return "property:" + string(in.ID) + ":" + in.Key
	}
	return ""
}

type setPropertyJSON struct {
	ID    document.ID   `json:"id"`
	Key   string        `json:"key"`
	Kind  document.Kind `json:"kind"`
	Value any           `json:"value"`
}

func (s SetProperty) MarshalJSON() ([]byte, error) {
	return json.Marshal(setPropertyJSON{ID: s.ID, Key: s.Key, Kind: s.Value.Kind, Value: s.Value.Raw()})
}

func (s *SetProperty) UnmarshalJSON(data []byte) error {
	var in setPropertyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	v, err := persist.ValueOf(persist.PropertyRecord{Key: in.Key, Kind: in.Kind, Value: in.Value})
	if err != nil {
		return err
	}
	*s = SetProperty{ID: in.ID, Key: in.Key, Value: v}
	return nil
}

// DecodeIntent reads an intent of the form {"type": "<kind>", ...fields}.
func DecodeIntent(data []byte) (Intent, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}

	var in Intent
	switch head.Type {
	case KindAddShape:
		in = decodeInto[AddShape](data)
	case KindMoveSelection:
		in = decodeInto[MoveSelection](data)
	case KindResizeShape:
		in = decodeInto[ResizeShape](data)
	case KindSetProperty:
		in = decodeInto[SetProperty](data)
	case KindAlign:
		in = decodeInto[Align](data)
	case KindDistribute:
		in = decodeInto[Distribute](data)
	case KindOrder:
		in = decodeInto[Order](data)
	case KindSelect:
		in = decodeInto[Select](data)
	case KindSelectTab:
		in = decodeInto[SelectTab](data)
	case KindToggleSidebar:
		in = decodeInto[ToggleSidebar](data)
	case KindRotate:
		in = decodeInto[Rotate](data)
	case KindNudge:
		in = decodeInto[Nudge](data)
	case KindGroup:
		return Group{}, nil
	case KindUngroup:
		return Ungroup{}, nil
	case KindCopy:
		return Copy{}, nil
	case KindCut:
		return Cut{}, nil
	case KindPaste:
		return Paste{}, nil
	case KindDuplicate:
		return Duplicate{}, nil
	case KindDelete:
		return Delete{}, nil
	case KindUndo:
		return Undo{}, nil
	case KindRedo:
		return Redo{}, nil
	case KindSelectAll:
		return SelectAll{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, head.Type)
	}
	if d, ok := in.(decodeError); ok {
		return nil, fmt.Errorf("decode %s: %w", head.Type, d.err)
	}
	return in, nil
}

type decodeError struct{ err error }

func (decodeError) Kind() string { return "" }

func decodeInto[T Intent](data []byte) Intent {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return decodeError{err}
	}
	return v
}

// EncodeIntent writes an intent in the form DecodeIntent reads.
func EncodeIntent(in Intent) ([]byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", in.Kind(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", in.Kind(), err)
	}
	kind, _ := json.Marshal(in.Kind())
	fields["type"] = kind
	return json.Marshal(fields)
}
