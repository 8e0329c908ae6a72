// Package storage keeps versioned diagram snapshots per editing session.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("snapshot not found")
	ErrConflict = errors.New("snapshot version already exists")
)

// Snapshot is one saved version of a session's diagram. Document holds the
// persist JSON encoding.
type Snapshot struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Version   int32           `json:"version"`
	Document  json.RawMessage `json:"-"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store persists snapshots. Save assigns the next version of the session.
type Store interface {
	Save(ctx context.Context, sessionID string, doc json.RawMessage) (*Snapshot, error)
	Latest(ctx context.Context, sessionID string) (*Snapshot, error)
	Get(ctx context.Context, sessionID string, version int32) (*Snapshot, error)
	List(ctx context.Context, sessionID string) ([]Snapshot, error)
}
