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
)

// ReconcileDependencies defines the interface for reconciliation operations.
type ReconcileDependencies interface {
	Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error)
}

// ReconcileHandler handles reconciliation requests.
type ReconcileHandler struct {
	deps ReconcileDependencies
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(deps ReconcileDependencies) *ReconcileHandler {
	return &ReconcileHandler{deps: deps}
}

// HandleReconcile handles GET /api/reconcile requests.
// Query parameters: parent (required), children (comma-separated),
// split_year (required), crop, metric, mode.
func (h *ReconcileHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	const op = "api.reconcile"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	req, err := parseReconcileQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", Wrap(op, err))
		return
	}
	result, err := h.deps.Reconcile(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, "invalid_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseReconcileQuery(q url.Values) (ReconcileRequest, error) {
	var req ReconcileRequest
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
	req.Mode = q.Get("mode")
	return req, nil
}

// splitList parses a comma-separated id list, dropping empty segments.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
