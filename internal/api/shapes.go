package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mydraft/mydraft/backend-go/internal/renderer"
)

type ShapeHandler struct {
	registry *renderer.Registry
}

func NewShapeHandler(registry *renderer.Registry) *ShapeHandler {
	return &ShapeHandler{registry: registry}
}

// ShapeType describes one entry of the shape palette.
type ShapeType struct {
	Type        string                    `json:"type"`
	Width       float64                   `json:"width"`
	Height      float64                   `json:"height"`
	Constraints renderer.Constraints      `json:"constraints"`
	Schema      []renderer.PropertySchema `json:"schema"`
}

// List handles GET /shapes.
func (h *ShapeHandler) List(w http.ResponseWriter, r *http.Request) {
	types := h.registry.Types()
	out := make([]ShapeType, 0, len(types))
	for _, typ := range types {
		rr, err := h.registry.Lookup(typ)
		if err != nil {
			continue
		}
		width, height := rr.DefaultSize()
		out = append(out, ShapeType{
			Type:        typ,
			Width:       width,
			Height:      height,
			Constraints: rr.Constraints(),
			Schema:      rr.Schema(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Schema handles GET /shapes/{type}/schema.
func (h *ShapeHandler) Schema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.registry.Schema(mux.Vars(r)["type"])
	if errors.Is(err, renderer.ErrUnknownShapeType) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}
