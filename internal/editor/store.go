// Package editor is the diagram store: it owns the current diagram, the
// selection and the history, accepts intents and publishes immutable
// snapshots of the result.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mydraft/mydraft/backend-go/internal/clipboard"
	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/history"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
	"github.com/mydraft/mydraft/backend-go/internal/renderer"
	"github.com/mydraft/mydraft/backend-go/internal/selection"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
	"github.com/mydraft/mydraft/backend-go/internal/uistate"
)

var (
	ErrAlreadyTransacting = errors.New("transaction already open")
	ErrNotTransacting     = errors.New("no open transaction")
)

// Mode is the transaction state of the store.
type Mode string

const (
	Idle        Mode = "idle"
	Transacting Mode = "transacting"
)

// Options tune the store. Zero fields take the defaults of DefaultOptions; a
// negative CoalesceWindow turns coalescing off.
type Options struct {
	HistoryLimit     int
	CoalesceWindow   time.Duration
	CoalesceMaxSteps int
	PasteOffset      float64
	DuplicateOffset  float64
	GridSize         float64

	Registry *renderer.Registry
	IDs      typeid.Generator
	Logger   *slog.Logger
	Now      func() time.Time
}

func DefaultOptions() Options {
	return Options{
		HistoryLimit:     100,
		CoalesceWindow:   500 * time.Millisecond,
		CoalesceMaxSteps: 50,
		PasteOffset:      clipboard.DefaultOffset,
		DuplicateOffset:  clipboard.DefaultOffset,
		GridSize:         10,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.HistoryLimit == 0 {
		o.HistoryLimit = def.HistoryLimit
	}
	if o.CoalesceWindow == 0 {
		o.CoalesceWindow = def.CoalesceWindow
	}
	if o.CoalesceMaxSteps == 0 {
		o.CoalesceMaxSteps = def.CoalesceMaxSteps
	}
	if o.PasteOffset == 0 {
		o.PasteOffset = def.PasteOffset
	}
	if o.DuplicateOffset == 0 {
		o.DuplicateOffset = def.DuplicateOffset
	}
	if o.Registry == nil {
		o.Registry = renderer.Default()
	}
	if o.IDs == nil {
		o.IDs = typeid.Random{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// pending is the history entry that coalescable intents may still extend.
type pending struct {
	key   string
	steps int
	last  time.Time
}

// Store is the editing state machine. It is not safe for concurrent use.
type Store struct {
	opts    Options
	log     *slog.Logger
	history *history.History

	diagram   document.Diagram
	selection selection.Selection
	ui        uistate.State

	mode   Mode
	txBase document.Diagram

	clip      clipboard.Payload
	hasClip   bool
	pasteRuns int

	pending  *pending
	revision uint64
	absorbed uint64
}

// New creates a store editing initial.
func New(initial document.Diagram, opts Options) *Store {
	opts = opts.withDefaults()
	return &Store{
		opts:    opts,
		log:     opts.Logger,
		history: history.New(initial, opts.HistoryLimit),
		diagram: initial,
		ui:      uistate.Initial(),
		mode:    Idle,
	}
}

// --- Queries ---

// Snapshot is an immutable view of the store.
type Snapshot struct {
	Diagram      document.Diagram
	Selection    selection.Selection
	Capabilities selection.Capabilities
	CanUndo      bool
	CanRedo      bool
	UndoLabel    string
	RedoLabel    string
	Mode         Mode
	UI           uistate.State
	Revision     uint64
}

func (s *Store) State() Snapshot {
	return Snapshot{
		Diagram:      s.diagram,
		Selection:    s.selection,
		Capabilities: selection.CapabilitiesOf(s.diagram, s.selection),
		CanUndo:      s.mode == Idle && s.history.CanUndo(),
		CanRedo:      s.mode == Idle && s.history.CanRedo(),
		UndoLabel:    s.history.UndoLabel(),
		RedoLabel:    s.history.RedoLabel(),
		Mode:         s.mode,
		UI:           s.ui,
		Revision:     s.revision,
	}
}

func (s *Store) CurrentDiagram() document.Diagram { return s.diagram }
func (s *Store) CurrentSelection() selection.Selection { return s.selection }
func (s *Store) Registry() *renderer.Registry { return s.opts.Registry }

// Revision increases every time the current diagram changes.
func (s *Store) Revision() uint64 { return s.revision }

// Absorbed counts the diagram intents that were rejected and left the
// diagram untouched.
func (s *Store) Absorbed() uint64 { return s.absorbed }

// ShapeSchema returns the property schema of a shape type.
func (s *Store) ShapeSchema(typ string) ([]renderer.PropertySchema, error) {
	return s.opts.Registry.Schema(typ)
}

// HistoryLabels lists the history entries, oldest first, and the cursor.
func (s *Store) HistoryLabels() ([]string, int) {
	return s.history.Labels()
}

// --- Transactions ---

// Begin opens a multi-step edit. Intents applied until Commit or Cancel do
// not touch history.
func (s *Store) Begin() error {
	if s.mode == Transacting {
		return ErrAlreadyTransacting
	}
	s.Flush()
	s.mode = Transacting
	s.txBase = s.diagram
	return nil
}

// Apply runs an intent inside the open transaction.
func (s *Store) Apply(in Intent) error {
	if s.mode != Transacting {
		return ErrNotTransacting
	}
	return s.Dispatch(in)
}

// Commit closes the transaction with one history entry, or none when the
// diagram ends up unchanged.
func (s *Store) Commit(label string) error {
	if s.mode != Transacting {
		return ErrNotTransacting
	}
	s.mode = Idle
	if !s.diagram.Equal(s.txBase) {
		s.history.Commit(s.diagram, label)
	}
	s.txBase = document.Diagram{}
	return nil
}

// Cancel closes the transaction and restores the diagram it started from.
func (s *Store) Cancel() error {
	if s.mode != Transacting {
		return ErrNotTransacting
	}
	s.mode = Idle
	s.setDiagram(s.txBase)
	s.txBase = document.Diagram{}
	return nil
}

// Flush ends the pending coalesced edit so the next intent starts a new entry.
func (s *Store) Flush() {
	s.pending = nil
}

// --- Loading ---

// Load replaces the session with a serialized diagram. Corrupt input is
// rejected and the current state is kept.
func (s *Store) Load(data []byte) error {
	d, err := persist.Unmarshal(data)
	if err != nil {
		s.log.Warn("rejected diagram load", "error", err)
		return fmt.Errorf("load diagram: %w", err)
	}
	s.Reset(d)
	return nil
}

// Reset starts over at d with an empty history.
func (s *Store) Reset(d document.Diagram) {
	s.mode = Idle
	s.txBase = document.Diagram{}
	s.pending = nil
	s.history.Reset(d)
	s.diagram = d
	s.selection = selection.Selection{}
	s.revision++
}

func (s *Store) setDiagram(d document.Diagram) {
	if d.Equal(s.diagram) {
		return
	}
	s.diagram = d
	s.selection = s.selection.Prune(d)
	s.revision++
}
