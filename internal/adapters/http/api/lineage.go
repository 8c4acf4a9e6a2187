// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/agrolens/agrolens/internal/domain/model"
)

// LineageDependencies defines the interface for lineage lookups.
type LineageDependencies interface {
	Lineage(ctx context.Context, region string) []model.LineageEvent
}

// LineageHandler handles lineage requests.
type LineageHandler struct {
	deps LineageDependencies
}

// NewLineageHandler creates a new lineage handler.
func NewLineageHandler(deps LineageDependencies) *LineageHandler {
	return &LineageHandler{deps: deps}
}

type lineageResponse struct {
	Events []model.LineageEvent `json:"events"`
	Count  int                  `json:"count"`
}

// HandleLineage handles GET /api/lineage?region= requests. Lookup
// failures degrade to an empty event list rather than an error status.
func (h *LineageHandler) HandleLineage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	events := h.deps.Lineage(r.Context(), r.URL.Query().Get("region"))
	if events == nil {
		events = []model.LineageEvent{}
	}
	writeJSON(w, http.StatusOK, lineageResponse{Events: events, Count: len(events)})
}
