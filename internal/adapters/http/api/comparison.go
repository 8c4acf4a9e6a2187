// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	service "github.com/agrolens/agrolens/internal/app"
	"github.com/agrolens/agrolens/internal/domain/comparison"
)

// ComparisonDependencies defines the interface for comparison tables.
type ComparisonDependencies interface {
	CompareTable(ctx context.Context, req ComparisonRequest) ([]comparison.RowStats, error)
}

// ComparisonHandler handles comparison table requests.
type ComparisonHandler struct {
	deps ComparisonDependencies
}

// NewComparisonHandler creates a new comparison handler.
func NewComparisonHandler(deps ComparisonDependencies) *ComparisonHandler {
	return &ComparisonHandler{deps: deps}
}

type comparisonResponse struct {
	Rows []comparison.RowStats `json:"rows"`
}

// HandleComparison handles GET /api/comparison requests.
// Query parameters: parent (required), children (comma-separated),
// split_year (required), crop, metric, window.
func (h *ComparisonHandler) HandleComparison(w http.ResponseWriter, r *http.Request) {
	const op = "api.comparison"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	req, err := parseComparisonQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", Wrap(op, err))
		return
	}
	rows, err := h.deps.CompareTable(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, "invalid_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if rows == nil {
		rows = []comparison.RowStats{}
	}
	writeJSON(w, http.StatusOK, comparisonResponse{Rows: rows})
}

func parseComparisonQuery(q url.Values) (ComparisonRequest, error) {
	var req ComparisonRequest
	req.ParentID = strings.TrimSpace(q.Get("parent"))
	if req.ParentID == "" {
		return req, NewKind("missing parent", ErrBadRequest)
	}
	year, err := strconv.Atoi(q.Get("split_year"))
	if err != nil {
		return req, NewKind("invalid split_year", ErrBadRequest)
	}
	req.SplitYear = year
	req.ChildIDs = splitList(q.Get("children"))
	req.Crop = q.Get("crop")
	req.Metric = q.Get("metric")
	if ws := q.Get("window"); ws != "" {
		window, err := strconv.Atoi(ws)
		if err != nil || window < 1 {
			return req, NewKind("invalid window", ErrBadRequest)
		}
		req.Window = window
	}
	return req, nil
}
