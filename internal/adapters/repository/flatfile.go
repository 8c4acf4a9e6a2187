package repository

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/agrolens/agrolens/internal/domain/model"
	"github.com/agrolens/agrolens/internal/ingest"
	"github.com/agrolens/agrolens/pkg/metrics"
)

// FlatFileStore serves the metric panel from a columnar CSV file holding
// the same logical shape as the relational store: unit_id, year,
// variable, value. It exists for degraded operation when the database is
// unreachable.
//
// The file is parsed once and held by an explicitly owned cache. By
// default the cache is valid for the process lifetime; a TTL can be set
// to pick up replaced files without a restart.
type FlatFileStore struct {
	path string
	ttl  time.Duration

	mu       sync.Mutex
	rows     []model.MetricObservation
	loadedAt time.Time
	loaded   bool
}

// FlatFileOption applies a configuration option to the FlatFileStore.
type FlatFileOption func(*FlatFileStore)

// WithCacheTTL makes the in-memory copy expire after d. Zero or negative
// keeps the default process-lifetime cache.
func WithCacheTTL(d time.Duration) FlatFileOption {
	return func(s *FlatFileStore) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// NewFlatFileStore creates a store over the given CSV path. The file is
// not touched until the first Fetch.
func NewFlatFileStore(path string, opts ...FlatFileOption) *FlatFileStore {
	s := &FlatFileStore{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch filters the cached panel down to the requested unit and variable
// sets, ordered ascending by year.
func (s *FlatFileStore) Fetch(ctx context.Context, unitIDs, variables []string, years model.YearRange) ([]model.MetricObservation, error) {
	if len(unitIDs) == 0 || len(variables) == 0 {
		return nil, nil
	}
	rows, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	wantUnit := make(map[string]struct{}, len(unitIDs))
	for _, id := range unitIDs {
		wantUnit[id] = struct{}{}
	}
	wantVar := make(map[string]struct{}, len(variables))
	for _, v := range variables {
		wantVar[v] = struct{}{}
	}

	var out []model.MetricObservation
	for _, row := range rows {
		if _, ok := wantUnit[row.UnitID]; !ok {
			continue
		}
		if _, ok := wantVar[row.Variable]; !ok {
			continue
		}
		if years.Bounded() && (row.Year < years.From || row.Year > years.To) {
			continue
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

// Reload drops the cached copy so the next Fetch re-reads the file.
func (s *FlatFileStore) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.rows = nil
}

// snapshot returns the cached rows, loading or refreshing them as needed.
func (s *FlatFileStore) snapshot(ctx context.Context) ([]model.MetricObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && (s.ttl <= 0 || time.Since(s.loadedAt) < s.ttl) {
		return s.rows, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rows, err := loadPanel(s.path)
	if err != nil {
		return nil, err
	}
	s.rows = rows
	s.loadedAt = time.Now()
	s.loaded = true
	metrics.UpdateFallbackRows(len(rows))
	return rows, nil
}

// loadPanel parses the whole CSV file, sharing the ingest parser so both
// paths into the system agree on the panel's flat shape. A malformed data
// row fails the load; a truncated file must not silently present itself
// as a sparse panel.
func loadPanel(path string) ([]model.MetricObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer f.Close()

	rows, err := ingest.ReadPanel(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	return rows, nil
}
