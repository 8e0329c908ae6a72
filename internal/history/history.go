// Package history keeps the undo/redo timeline of immutable diagram snapshots.
package history

import (
	"github.com/mydraft/mydraft/backend-go/internal/document"
)

// Entry is one committed snapshot.
type Entry struct {
	Diagram document.Diagram
	Label   string
}

// History is a sequence of entries with a cursor. Entries after the cursor are
// redoable. Not safe for concurrent use.
type History struct {
	entries []Entry
	cursor  int
	limit   int
}

// New starts a history at initial. A limit below 1 keeps every entry.
func New(initial document.Diagram, limit int) *History {
	return &History{
		entries: []Entry{{Diagram: initial, Label: "initial"}},
		limit:   limit,
	}
}

// Current returns the diagram at the cursor.
func (h *History) Current() document.Diagram { return h.entries[h.cursor].Diagram }

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Commit drops the redoable entries, appends d and moves the cursor onto it.
// The oldest entries are discarded once the limit is exceeded.
func (h *History) Commit(d document.Diagram, label string) {
	h.entries = append(h.entries[:h.cursor+1], Entry{Diagram: d, Label: label})
	h.cursor = len(h.entries) - 1
	if h.limit > 0 && len(h.entries) > h.limit+1 {
		drop := len(h.entries) - (h.limit + 1)
		h.entries = append([]Entry(nil), h.entries[drop:]...)
		h.cursor -= drop
	}
}

// Replace swaps the entry at the cursor without moving it. It is used to
// extend a coalesced edit.
func (h *History) Replace(d document.Diagram, label string) {
	h.entries[h.cursor] = Entry{Diagram: d, Label: label}
}

// Undo steps back one entry. ok is false at the oldest entry.
func (h *History) Undo() (document.Diagram, bool) {
	if !h.CanUndo() {
		return h.Current(), false
	}
	h.cursor--
	return h.Current(), true
}

// Redo steps forward one entry. ok is false at the newest entry.
func (h *History) Redo() (document.Diagram, bool) {
	if !h.CanRedo() {
		return h.Current(), false
	}
	h.cursor++
	return h.Current(), true
}

// Reset discards every entry and starts over at d.
func (h *History) Reset(d document.Diagram) {
	h.entries = []Entry{{Diagram: d, Label: "initial"}}
	h.cursor = 0
}

// UndoLabel names the edit Undo would revert.
func (h *History) UndoLabel() string {
	if !h.CanUndo() {
		return ""
	}
	return h.entries[h.cursor].Label
}

// RedoLabel names the edit Redo would reapply.
func (h *History) RedoLabel() string {
	if !h.CanRedo() {
		return ""
	}
	return h.entries[h.cursor+1].Label
}

// Labels lists every entry label, oldest first, with the cursor position.
func (h *History) Labels() ([]string, int) {
	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Label
	}
	return out, h.cursor
}

func (h *History) Len() int { return len(h.entries) }
