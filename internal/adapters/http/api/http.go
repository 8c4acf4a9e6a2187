// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/agrolens/agrolens/internal/app"
	"github.com/agrolens/agrolens/internal/domain/comparison"
	"github.com/agrolens/agrolens/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Reconcile computes the reconciled series triple for one request.
	Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error)

	// Lineage returns the boundary-change events for a region.
	Lineage(ctx context.Context, region string) []model.LineageEvent

	// CompareTable builds the per-entity pre/post comparison rows.
	CompareTable(ctx context.Context, req ComparisonRequest) ([]comparison.RowStats, error)
}

// Request and result shapes mirror the application layer.
type (
	ReconcileRequest  = service.ReconcileRequest
	ReconcileResult   = service.ReconcileResult
	ComparisonRequest = service.ComparisonRequest
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	reconcileHandler  *ReconcileHandler
	lineageHandler    *LineageHandler
	comparisonHandler *ComparisonHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		reconcileHandler:  NewReconcileHandler(deps),
		lineageHandler:    NewLineageHandler(deps),
		comparisonHandler: NewComparisonHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/reconcile", MetricsMiddleware(s.reconcileHandler.HandleReconcile, "reconcile"))
	mux.HandleFunc("/api/lineage", MetricsMiddleware(s.lineageHandler.HandleLineage, "lineage"))
	mux.HandleFunc("/api/comparison", MetricsMiddleware(s.comparisonHandler.HandleComparison, "comparison"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
