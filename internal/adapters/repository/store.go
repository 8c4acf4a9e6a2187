// Package repository provides access to the metric panel and the lineage
// table, backed by PostgreSQL with a flat-file fallback.
package repository

import (
	"context"

	"github.com/agrolens/agrolens/internal/domain/model"
)

// MetricStore fetches raw observations for an arbitrary unit set in one
// call; a parent plus N children must never turn into N+1 queries.
// Implementations return rows ordered ascending by year and signal
// ErrStoreUnavailable when the underlying source is unreachable.
type MetricStore interface {
	Fetch(ctx context.Context, unitIDs, variables []string, years model.YearRange) ([]model.MetricObservation, error)
}

// LineageSource loads parent/child split events, optionally filtered by
// region or parent unit id. Callers treat failures as "no lineage
// data", not as fatal.
type LineageSource interface {
	Resolve(ctx context.Context, filter string) ([]model.LineageEvent, error)
}
