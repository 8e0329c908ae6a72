// Package api is the HTTP surface of the editing engine.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mydraft/mydraft/backend-go/internal/auth"
	"github.com/mydraft/mydraft/backend-go/internal/editor"
	"github.com/mydraft/mydraft/backend-go/internal/session"
)

const maxBodySize = 8 << 20 // 8MB

type SessionHandler struct {
	sessions *session.Manager
	auth     *auth.Service
}

func NewSessionHandler(sessions *session.Manager, authService *auth.Service) *SessionHandler {
	return &SessionHandler{sessions: sessions, auth: authService}
}

type createResponse struct {
	Session session.View `json:"session"`
	Token   *auth.Token  `json:"token"`
}

// intentsRequest carries a batch of intents. A label, or transaction set to
// true, runs the batch as one undoable step.
type intentsRequest struct {
	Intents     []json.RawMessage `json:"intents"`
	Label       string            `json:"label,omitempty"`
	Transaction bool              `json:"transaction,omitempty"`
}

// Create handles POST /sessions. An empty body starts an empty diagram.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req session.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	view, err := h.sessions.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	token, err := h.auth.IssueToken(view.SessionID)
	if err != nil {
		slog.Error("issue session token failed", "error", err, "session", view.SessionID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{Session: view, Token: token})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.View(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Intents handles POST /sessions/{id}/intents.
func (h *SessionHandler) Intents(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	sessionID := mux.Vars(r)["id"]

	var req intentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Intents) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "intents are required"})
		return
	}

	intents := make([]editor.Intent, 0, len(req.Intents))
	for _, raw := range req.Intents {
		in, err := editor.DecodeIntent(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		intents = append(intents, in)
	}

	var view session.View
	var err error
	if req.Transaction || req.Label != "" {
		view, err = h.sessions.Transact(r.Context(), sessionID, req.Label, intents...)
	} else {
		view, err = h.sessions.Dispatch(r.Context(), sessionID, intents...)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Load handles POST /sessions/{id}/load with a serialized diagram body.
func (h *SessionHandler) Load(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	view, err := h.sessions.Load(r.Context(), mux.Vars(r)["id"], data)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Save(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *SessionHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.sessions.Snapshots(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, session.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
