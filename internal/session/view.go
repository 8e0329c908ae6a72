package session

import (
	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/editor"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
	"github.com/mydraft/mydraft/backend-go/internal/selection"
	"github.com/mydraft/mydraft/backend-go/internal/uistate"
)

// View is the JSON form of a session's state sent to clients.
type View struct {
	SessionID    string                 `json:"sessionId"`
	Revision     uint64                 `json:"revision"`
	Diagram      persist.Document       `json:"diagram"`
	Selection    []document.ID          `json:"selection"`
	Capabilities selection.Capabilities `json:"capabilities"`
	CanUndo      bool                   `json:"canUndo"`
	CanRedo      bool                   `json:"canRedo"`
	UndoLabel    string                 `json:"undoLabel,omitempty"`
	RedoLabel    string                 `json:"redoLabel,omitempty"`
	Mode         editor.Mode            `json:"mode"`
	UI           uistate.State          `json:"ui"`
	Dirty        bool                   `json:"dirty"`
	SavedVersion int32                  `json:"savedVersion,omitempty"`
}

func viewOf(s *Session) View {
	st := s.editor.State()
	sel := st.Selection.IDs()
	if sel == nil {
		sel = []document.ID{}
	}
	return View{
		SessionID:    s.ID,
		Revision:     st.Revision,
		Diagram:      persist.Encode(st.Diagram),
		Selection:    sel,
		Capabilities: st.Capabilities,
		CanUndo:      st.CanUndo,
		CanRedo:      st.CanRedo,
		UndoLabel:    st.UndoLabel,
		RedoLabel:    st.RedoLabel,
		Mode:         st.Mode,
		UI:           st.UI,
		Dirty:        s.dirtyLocked(),
		SavedVersion: s.savedVersion,
	}
}
