package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

// Schema creates the snapshot table. It is safe to run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS diagram_snapshots (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	version    INTEGER NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (session_id, version)
)`

const (
	insertSnapshot = `
INSERT INTO diagram_snapshots (id, session_id, version, document)
SELECT $1::text, $2::text, COALESCE(MAX(version), 0) + 1, $3::jsonb
FROM diagram_snapshots WHERE session_id = $2::text
RETURNING id, session_id, version, document, created_at`

	selectLatest = `
SELECT id, session_id, version, document, created_at
FROM diagram_snapshots WHERE session_id = $1
ORDER BY version DESC LIMIT 1`

	selectVersion = `
SELECT id, session_id, version, document, created_at
FROM diagram_snapshots WHERE session_id = $1 AND version = $2`

	selectAll = `
SELECT id, session_id, version, document, created_at
FROM diagram_snapshots WHERE session_id = $1
ORDER BY version DESC`
)

// Postgres stores snapshots in a diagram_snapshots table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPool connects to databaseURL and checks the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate applies Schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate snapshots: %w", err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, sessionID string, doc json.RawMessage) (*Snapshot, error) {
	row := p.pool.QueryRow(ctx, insertSnapshot, typeid.NewSnapshotID(), sessionID, []byte(doc))
	snap, err := scanSnapshot(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return snap, nil
}

func (p *Postgres) Latest(ctx context.Context, sessionID string) (*Snapshot, error) {
	snap, err := scanSnapshot(p.pool.QueryRow(ctx, selectLatest, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return snap, nil
}

func (p *Postgres) Get(ctx context.Context, sessionID string, version int32) (*Snapshot, error) {
	snap, err := scanSnapshot(p.pool.QueryRow(ctx, selectVersion, sessionID, version))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

func (p *Postgres) List(ctx context.Context, sessionID string) ([]Snapshot, error) {
	rows, err := p.pool.Query(ctx, selectAll, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	snaps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Snapshot, error) {
		s, err := scanSnapshot(row)
		if err != nil {
			return Snapshot{}, err
		}
		return *s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	var doc []byte
	if err := row.Scan(&s.ID, &s.SessionID, &s.Version, &doc, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Document = doc
	return &s, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
