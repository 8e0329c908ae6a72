// Package session hosts editing sessions: one diagram store per session,
// serialized access, snapshot persistence and autosave.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/editor"
	"github.com/mydraft/mydraft/backend-go/internal/metrics"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
	"github.com/mydraft/mydraft/backend-go/internal/renderer"
	"github.com/mydraft/mydraft/backend-go/internal/storage"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrInvalid  = errors.New("invalid session request")
)

// Session is one editor. All access goes through its mutex; the store
// itself is single-threaded.
type Session struct {
	ID string

	mu           sync.Mutex
	editor       *editor.Store
	savedRev     uint64
	savedVersion int32
}

func (s *Session) dirtyLocked() bool { return s.editor.Revision() != s.savedRev }

// Listener is told about every state change of a session.
type Listener func(v View)

// Manager owns the live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	storage storage.Store
	opts    editor.Options
	metrics *metrics.Metrics
	log     *slog.Logger

	lmu       sync.RWMutex
	listeners map[string]map[int]Listener
	nextLID   int
}

func NewManager(store storage.Store, opts editor.Options, m *metrics.Metrics, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.Registry == nil {
		opts.Registry = renderer.Default()
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		storage:   store,
		opts:      opts,
		metrics:   m,
		log:       log,
		listeners: make(map[string]map[int]Listener),
	}
}

// Registry returns the shape registry shared by every session.
func (m *Manager) Registry() *renderer.Registry { return m.opts.Registry }

// CreateRequest selects the starting diagram of a new session. At most one
// source may be set; none starts from an empty diagram.
type CreateRequest struct {
	// FromSession copies the latest snapshot (or FromVersion) of a session.
	FromSession string `json:"fromSession,omitempty"`
	FromVersion int32  `json:"fromVersion,omitempty"`

	// Document is a serialized diagram.
	Document json.RawMessage `json:"document,omitempty"`

	// Sample starts from the built-in sample diagram.
	Sample bool `json:"sample,omitempty"`
}

// Create starts a new session.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (View, error) {
	initial := document.New()
	switch {
	case req.FromSession != "":
		snap, err := m.snapshot(ctx, req.FromSession, req.FromVersion)
		if err != nil {
			return View{}, err
		}
		if initial, err = persist.Unmarshal(snap.Document); err != nil {
			return View{}, fmt.Errorf("load snapshot %s: %w", snap.ID, err)
		}
	case len(req.Document) > 0:
		var err error
		if initial, err = persist.Unmarshal(req.Document); err != nil {
			return View{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	case req.Sample:
		initial = persist.NewSampleDiagram(m.generator())
	}

	s := m.add(m.newSession(typeid.NewSessionID(), initial))

	// Seed the first snapshot so the session survives a restart.
	if _, err := m.save(ctx, s); err != nil {
		m.remove(s.ID)
		return View{}, fmt.Errorf("create initial snapshot: %w", err)
	}
	m.log.Info("session created", "session", s.ID, "shapes", initial.Len())

	s.mu.Lock()
	defer s.mu.Unlock()
	return viewOf(s), nil
}

func (m *Manager) snapshot(ctx context.Context, sessionID string, version int32) (*storage.Snapshot, error) {
	var snap *storage.Snapshot
	var err error
	if version > 0 {
		snap, err = m.storage.Get(ctx, sessionID, version)
	} else {
		snap, err = m.storage.Latest(ctx, sessionID)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: no snapshot for %s", ErrNotFound, sessionID)
	}
	return snap, err
}

func (m *Manager) generator() typeid.Generator {
	if m.opts.IDs != nil {
		return m.opts.IDs
	}
	return typeid.Random{}
}

func (m *Manager) newSession(id string, initial document.Diagram) *Session {
	opts := m.opts
	opts.Logger = m.log.With("session", id)
	s := &Session{ID: id, editor: editor.New(initial, opts)}
	s.savedRev = s.editor.Revision()
	return s
}

// add registers s unless a session with its id is already live, in which
// case the live one wins.
func (m *Manager) add(s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if live, ok := m.sessions[s.ID]; ok {
		return live
	}
	m.sessions[s.ID] = s
	m.metrics.SessionsActive.Set(float64(len(m.sessions)))
	return s
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.metrics.SessionsActive.Set(float64(len(m.sessions)))
}

// get returns a live session, reopening it from its latest snapshot when it
// is not in memory.
func (m *Manager) get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}
	if err := typeid.Validate(id, typeid.PrefixSession); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	snap, err := m.snapshot(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	d, err := persist.Unmarshal(snap.Document)
	if err != nil {
		return nil, fmt.Errorf("reopen %s: %w", id, err)
	}

	s = m.newSession(id, d)
	s.savedVersion = snap.Version
	if live := m.add(s); live != s {
		return live, nil
	}
	m.log.Info("session reopened", "session", id, "version", snap.Version)
	return s, nil
}

// View returns the current state of a session.
func (m *Manager) View(ctx context.Context, id string) (View, error) {
	s, err := m.get(ctx, id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return viewOf(s), nil
}

// Diagram returns the session's current diagram. Diagrams are immutable, so
// the caller may use it without holding any lock.
func (m *Manager) Diagram(ctx context.Context, id string) (document.Diagram, error) {
	s, err := m.get(ctx, id)
	if err != nil {
		return document.Diagram{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.CurrentDiagram(), nil
}

// Dispatch runs intents in order. An unknown intent stops the batch.
func (m *Manager) Dispatch(ctx context.Context, id string, intents ...editor.Intent) (View, error) {
	return m.update(ctx, id, func(st *editor.Store) error {
		for _, in := range intents {
			if err := m.dispatchOne(st, in, st.Dispatch); err != nil {
				return err
			}
		}
		return nil
	})
}

// Transact runs intents as one undoable step labeled label. Any error
// cancels the whole transaction.
func (m *Manager) Transact(ctx context.Context, id, label string, intents ...editor.Intent) (View, error) {
	return m.update(ctx, id, func(st *editor.Store) error {
		if err := st.Begin(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		for _, in := range intents {
			if err := m.dispatchOne(st, in, st.Apply); err != nil {
				_ = st.Cancel()
				return err
			}
		}
		if err := st.Commit(label); err != nil && !errors.Is(err, editor.ErrNotTransacting) {
			return err
		}
		return nil
	})
}

func (m *Manager) dispatchOne(st *editor.Store, in editor.Intent, run func(editor.Intent) error) error {
	before := st.Absorbed()
	if err := run(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	m.metrics.Intents.WithLabelValues(in.Kind()).Inc()
	if st.Absorbed() != before {
		m.metrics.IntentsAbsorbed.WithLabelValues(in.Kind()).Inc()
	}
	return nil
}

// Load replaces a session's diagram with a serialized one. Corrupt input is
// rejected and the session keeps its state.
func (m *Manager) Load(ctx context.Context, id string, data []byte) (View, error) {
	return m.update(ctx, id, func(st *editor.Store) error {
		if err := st.Load(data); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return nil
	})
}

func (m *Manager) update(ctx context.Context, id string, fn func(*editor.Store) error) (View, error) {
	s, err := m.get(ctx, id)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	err = fn(s.editor)
	v := viewOf(s)
	s.mu.Unlock()

	m.notify(v)
	return v, err
}

// Save writes a snapshot of the session's diagram.
func (m *Manager) Save(ctx context.Context, id string) (*storage.Snapshot, error) {
	s, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.save(ctx, s)
}

func (m *Manager) save(ctx context.Context, s *Session) (*storage.Snapshot, error) {
	s.mu.Lock()
	rev := s.editor.Revision()
	data, err := persist.Marshal(s.editor.CurrentDiagram())
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	snap, err := m.storage.Save(ctx, s.ID, data)
	if err != nil {
		m.metrics.SaveErrors.Inc()
		return nil, fmt.Errorf("save session %s: %w", s.ID, err)
	}
	m.metrics.SnapshotsSaved.Inc()

	s.mu.Lock()
	s.savedRev = rev
	s.savedVersion = snap.Version
	v := viewOf(s)
	s.mu.Unlock()

	m.notify(v)
	return snap, nil
}

// Snapshots lists the saved versions of a session, newest first.
func (m *Manager) Snapshots(ctx context.Context, id string) ([]storage.Snapshot, error) {
	if _, err := m.get(ctx, id); err != nil {
		return nil, err
	}
	return m.storage.List(ctx, id)
}

// SaveDirty snapshots every session with unsaved changes and returns how
// many were written.
func (m *Manager) SaveDirty(ctx context.Context) int {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	saved := 0
	for _, s := range all {
		s.mu.Lock()
		dirty := s.dirtyLocked()
		s.mu.Unlock()
		if !dirty {
			continue
		}
		if _, err := m.save(ctx, s); err != nil {
			m.log.Error("autosave failed", "session", s.ID, "error", err)
			continue
		}
		saved++
	}
	return saved
}

// Run autosaves dirty sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.SaveDirty(ctx); n > 0 {
				m.log.Debug("autosaved sessions", "count", n)
			}
		}
	}
}

// Stop saves every dirty session. It is called once on shutdown.
func (m *Manager) Stop(ctx context.Context) {
	n := m.SaveDirty(ctx)
	m.log.Info("sessions saved on shutdown", "count", n)
}

// Subscribe registers fn for state changes of one session. The returned
// function removes it.
func (m *Manager) Subscribe(id string, fn Listener) func() {
	m.lmu.Lock()
	defer m.lmu.Unlock()
	m.nextLID++
	lid := m.nextLID
	if m.listeners[id] == nil {
		m.listeners[id] = make(map[int]Listener)
	}
	m.listeners[id][lid] = fn
	return func() {
		m.lmu.Lock()
		defer m.lmu.Unlock()
		delete(m.listeners[id], lid)
		if len(m.listeners[id]) == 0 {
			delete(m.listeners, id)
		}
	}
}

func (m *Manager) notify(v View) {
	m.lmu.RLock()
	fns := make([]Listener, 0, len(m.listeners[v.SessionID]))
	for _, fn := range m.listeners[v.SessionID] {
		fns = append(fns, fn)
	}
	m.lmu.RUnlock()
	for _, fn := range fns {
		fn(v)
	}
}
