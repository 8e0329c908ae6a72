// Package export serves a session's diagram as SVG, PNG, YAML or JSON.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
	"github.com/mydraft/mydraft/backend-go/internal/renderer"
	"github.com/mydraft/mydraft/backend-go/internal/session"
	"github.com/mydraft/mydraft/backend-go/internal/thumbnail"
)

const (
	maxImageSize     = 4096
	defaultImageSize = 1024
)

// Source hands out the current diagram of a session.
type Source interface {
	Diagram(ctx context.Context, id string) (document.Diagram, error)
	Registry() *renderer.Registry
}

type Handler struct {
	source Source
}

func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

// Diagram handles GET /sessions/{id}/diagram.{format}. PNG output takes a
// size query parameter; any format takes download=1 and an optional name
// for an attachment response.
func (h *Handler) Diagram(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	size := defaultImageSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxImageSize {
			http.Error(w, fmt.Sprintf("invalid size: must be 1-%d", maxImageSize), http.StatusBadRequest)
			return
		}
		size = n
	}
	h.write(w, r, format, size)
}

// Thumbnail handles GET /sessions/{id}/thumbnail.png.
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, "png", thumbnail.DefaultSize)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, format string, size int) {
	sessionID := mux.Vars(r)["id"]
	d, err := h.source.Diagram(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		slog.Error("load diagram for export", "error", err, "session", sessionID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "svg":
		contentType = "image/svg+xml"
		err = renderer.WriteSVG(&buf, h.source.Registry(), d)
	case "png":
		contentType = "image/png"
		err = thumbnail.WritePNG(&buf, h.source.Registry(), d, size)
	case "yaml":
		contentType = "application/yaml"
		var data []byte
		if data, err = persist.MarshalYAML(d); err == nil {
			buf.Write(data)
		}
	case "json":
		contentType = "application/json"
		var data []byte
		if data, err = persist.Marshal(d); err == nil {
			buf.Write(data)
		}
	default:
		http.Error(w, "invalid format: must be svg, png, yaml, or json", http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("export failed", "format", format, "error", err, "session", sessionID)
		http.Error(w, fmt.Sprintf("encoding failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("download") == "1" {
		name := sanitize(r.URL.Query().Get("name"))
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	}
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func sanitize(name string) string {
	if name == "" {
		return "diagram"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
