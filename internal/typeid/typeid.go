package typeid

import (
	"fmt"
	"strconv"
	"sync"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixShape    = "shape"
	PrefixGroup    = "group"
	PrefixSession  = "session"
	PrefixSnapshot = "snap"
)

// Generator hands out identifiers. Implementations never return the same
// value twice for the lifetime of the generator.
type Generator interface {
	Next(prefix string) string
}

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewSessionID() string  { return New(PrefixSession) }
func NewSnapshotID() string { return New(PrefixSnapshot) }

// Random generates k-sortable typeids (UUIDv7 suffix).
type Random struct{}

func (Random) Next(prefix string) string { return New(prefix) }

// Sequence generates "<prefix>_<n>" with a counter shared across prefixes.
// It is deterministic, which keeps tests and wasm builds reproducible.
type Sequence struct {
	mu   sync.Mutex
	next uint64
}

// NewSequence returns a sequence whose first id carries the number start.
func NewSequence(start uint64) *Sequence {
	return &Sequence{next: start}
}

func (s *Sequence) Next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.next
	s.next++
	return prefix + "_" + strconv.FormatUint(n, 10)
}

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
