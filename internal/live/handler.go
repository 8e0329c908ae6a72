package live

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mydraft/mydraft/backend-go/internal/session"
)

type Handler struct {
	hub            *Hub
	sessions       *session.Manager
	originPatterns []string
}

// NewHandler serves websocket upgrades. originPatterns lists the allowed
// browser origins as host patterns, e.g. "localhost:5173".
func NewHandler(hub *Hub, sessions *session.Manager, originPatterns []string) *Handler {
	return &Handler{hub: hub, sessions: sessions, originPatterns: originPatterns}
}

// ServeWS upgrades the connection for the session in the {id} route
// variable. Authorization happens before this handler runs.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if _, err := h.sessions.View(r.Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		slog.Error("open session for websocket", "error", err, "session", sessionID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, sessionID, uuid.New().String())
	h.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
