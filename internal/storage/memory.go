package storage

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

// Memory is an in-process Store used when no database is configured.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string][]Snapshot
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{snaps: make(map[string][]Snapshot), now: time.Now}
}

func (m *Memory) Save(_ context.Context, sessionID string, doc json.RawMessage) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.snaps[sessionID]
	snap := Snapshot{
		ID:        typeid.NewSnapshotID(),
		SessionID: sessionID,
		Version:   int32(len(list)) + 1,
		Document:  slices.Clone(doc),
		CreatedAt: m.now().UTC(),
	}
	m.snaps[sessionID] = append(list, snap)
	return &snap, nil
}

func (m *Memory) Latest(_ context.Context, sessionID string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.snaps[sessionID]
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	snap := list[len(list)-1]
	return &snap, nil
}

func (m *Memory) Get(_ context.Context, sessionID string, version int32) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.snaps[sessionID]
	if version < 1 || int(version) > len(list) {
		return nil, ErrNotFound
	}
	snap := list[version-1]
	return &snap, nil
}

// List returns the session's snapshots, newest first.
func (m *Memory) List(_ context.Context, sessionID string) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := slices.Clone(m.snaps[sessionID])
	slices.Reverse(list)
	return list, nil
}
