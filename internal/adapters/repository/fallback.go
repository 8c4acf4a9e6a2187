package repository

import (
	"context"
	"errors"

	"github.com/agrolens/agrolens/internal/domain/model"
	"github.com/agrolens/agrolens/pkg/logger"
	"github.com/agrolens/agrolens/pkg/metrics"
)

// FallbackStore chains a primary MetricStore with a secondary one. The
// secondary is consulted only when the primary reports
// ErrStoreUnavailable; an empty row set from a healthy primary is a
// valid answer and never triggers the fallback.
type FallbackStore struct {
	primary   MetricStore
	secondary MetricStore
	log       logger.Logger
}

// NewFallbackStore composes the two stores. secondary may be nil, in
// which case the chain degrades to the primary alone.
func NewFallbackStore(primary, secondary MetricStore, log logger.Logger) *FallbackStore {
	return &FallbackStore{primary: primary, secondary: secondary, log: log}
}

// Fetch tries the primary and falls back on unavailability.
func (s *FallbackStore) Fetch(ctx context.Context, unitIDs, variables []string, years model.YearRange) ([]model.MetricObservation, error) {
	rows, err := s.primary.Fetch(ctx, unitIDs, variables, years)
	if err == nil {
		return rows, nil
	}
	if !errors.Is(err, ErrStoreUnavailable) || s.secondary == nil {
		return nil, err
	}

	if s.log != nil {
		s.log.Warn(ctx, "primary metric store unavailable, using flat-file fallback", logger.Error(err))
	}
	metrics.RecordFallbackHit()
	return s.secondary.Fetch(ctx, unitIDs, variables, years)
}
