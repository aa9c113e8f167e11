package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/domain/reference"
	apperrors "github.com/wellpack/engine/pkg/errors"
)

// ReferenceHandlers exposes the read-only reference tables
type ReferenceHandlers struct {
	data   *reference.Data
	logger *zap.Logger
}

// NewReferenceHandlers creates a new reference handlers instance
func NewReferenceHandlers(data *reference.Data, logger *zap.Logger) *ReferenceHandlers {
	return &ReferenceHandlers{
		data:   data,
		logger: logger.Named("reference-handlers"),
	}
}

// InteractionResponse describes the status of one item pair
type InteractionResponse struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// Catalog handles GET /api/v1/reference/catalog
func (h *ReferenceHandlers) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, APIResponse{
		Success: true,
		Data:    h.data.Catalog().Items(),
	})
}

// Interaction handles GET /api/v1/reference/interactions?a=...&b=...
func (h *ReferenceHandlers) Interaction(w http.ResponseWriter, r *http.Request) {
	catalog := h.data.Catalog()
	a, okA := catalog.Resolve(r.URL.Query().Get("a"))
	b, okB := catalog.Resolve(r.URL.Query().Get("b"))
	if !okA || !okB {
		writeError(w, r, h.logger, apperrors.NewNotFoundError("Catalog item"))
		return
	}

	graph := h.data.Interactions()
	resp := InteractionResponse{
		A:      a.Name,
		B:      b.Name,
		Status: graph.Status(a.Name, b.Name).String(),
	}
	if edge, ok := graph.Edge(a.Name, b.Name); ok {
		resp.Note = edge.Note
	}
	writeJSON(w, h.logger, http.StatusOK, APIResponse{Success: true, Data: resp})
}
