package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mydraft/mydraft/backend-go/internal/auth"
	"github.com/mydraft/mydraft/backend-go/internal/export"
	"github.com/mydraft/mydraft/backend-go/internal/live"
	"github.com/mydraft/mydraft/backend-go/internal/metrics"
	mw "github.com/mydraft/mydraft/backend-go/internal/middleware"
	"github.com/mydraft/mydraft/backend-go/internal/session"
)

// Deps are the services the router exposes.
type Deps struct {
	Sessions *session.Manager
	Auth     *auth.Service
	Hub      *live.Hub
	Metrics  *metrics.Metrics
	// Origins are host patterns allowed for CORS and websocket upgrades.
	Origins []string
}

func NewRouter(d Deps) http.Handler {
	sessionHandler := NewSessionHandler(d.Sessions, d.Auth)
	shapeHandler := NewShapeHandler(d.Sessions.Registry())
	exportHandler := export.NewHandler(d.Sessions)
	authHandler := auth.NewHandler(d.Auth)
	wsHandler := live.NewHandler(d.Hub, d.Sessions, d.Origins)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(d.Metrics.Middleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", d.Metrics.Handler()).Methods("GET")

	r.HandleFunc("/shapes", shapeHandler.List).Methods("GET")
	r.HandleFunc("/shapes/{type}/schema", shapeHandler.Schema).Methods("GET")

	r.HandleFunc("/sessions", sessionHandler.Create).Methods("POST")

	// Everything under a session needs that session's token.
	s := r.PathPrefix("/sessions/{id}").Subrouter()
	s.Use(d.Auth.AuthMiddleware)

	s.HandleFunc("", sessionHandler.Get).Methods("GET")
	s.HandleFunc("/intents", sessionHandler.Intents).Methods("POST")
	s.HandleFunc("/load", sessionHandler.Load).Methods("POST")
	s.HandleFunc("/save", sessionHandler.Save).Methods("POST")
	s.HandleFunc("/snapshots", sessionHandler.Snapshots).Methods("GET")
	s.HandleFunc("/token", authHandler.Refresh).Methods("POST")
	s.HandleFunc("/thumbnail.png", exportHandler.Thumbnail).Methods("GET")
	s.HandleFunc("/diagram.{format}", exportHandler.Diagram).Methods("GET")

	ws := r.PathPrefix("/ws/sessions/{id}").Subrouter()
	ws.Use(d.Auth.AuthMiddleware)
	ws.HandleFunc("", wsHandler.ServeWS)

	return mw.CORS(d.Origins)(r)
}
