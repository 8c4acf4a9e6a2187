package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/agrolens/agrolens/internal/domain/model"
	"github.com/agrolens/agrolens/pkg/metrics"
)

// Default connection pool settings.
const (
	defaultMaxOpenConns   = 25
	defaultMaxIdleConns   = 10
	defaultConnectTimeout = 3 * time.Second
)

// PostgresStore serves both the metric panel and the lineage table from
// one pooled connection.
type PostgresStore struct {
	db             *sqlx.DB
	connectTimeout time.Duration
}

// PostgresOption applies a configuration option to the PostgresStore.
type PostgresOption func(*PostgresStore)

// WithConnectTimeout bounds how long a fetch waits for the store before
// it degrades to unavailable. A stalled database must fail a request
// quickly, not hang it.
func WithConnectTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.connectTimeout = d
		}
	}
}

// WithPoolLimits bounds the shared connection pool.
func WithPoolLimits(maxOpen, maxIdle int) PostgresOption {
	return func(s *PostgresStore) {
		if maxOpen > 0 {
			s.db.SetMaxOpenConns(maxOpen)
		}
		if maxIdle > 0 {
			s.db.SetMaxIdleConns(maxIdle)
		}
	}
}

// OpenPostgres opens a pooled connection to the metric database. The
// connection is verified lazily; an unreachable database surfaces as
// ErrStoreUnavailable on first use, not at startup.
func OpenPostgres(dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)

	s := &PostgresStore{
		db:             db,
		connectTimeout: defaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AttachDB wraps an existing connection, for tests and tooling.
func AttachDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, connectTimeout: defaultConnectTimeout}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for ingest tooling.
func (s *PostgresStore) DB() *sqlx.DB {
	return s.db
}

// Fetch returns observations for every (unit, variable) combination in
// one query, ordered ascending by year.
func (s *PostgresStore) Fetch(ctx context.Context, unitIDs, variables []string, years model.YearRange) ([]model.MetricObservation, error) {
	if len(unitIDs) == 0 || len(variables) == 0 {
		return nil, nil
	}

	query := `
		SELECT unit_id, year, variable, value
		FROM unit_metrics
		WHERE unit_id IN (?) AND variable IN (?)`
	args := []interface{}{unitIDs, variables}
	if years.Bounded() {
		query += ` AND year BETWEEN ? AND ?`
		args = append(args, years.From, years.To)
	}
	query += ` ORDER BY year ASC, unit_id ASC, variable ASC`

	query, flat, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build metric query: %w", err)
	}
	query = s.db.Rebind(query)

	ctx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	start := time.Now()
	var rows []model.MetricObservation
	if err := s.db.SelectContext(ctx, &rows, query, flat...); err != nil {
		metrics.RecordStoreError("postgres")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	metrics.RecordStoreQuery("postgres", float64(time.Since(start).Milliseconds()))
	return rows, nil
}

// Resolve loads lineage events. A non-empty filter matches either the
// region a split is filed under or the parent unit id, so callers can
// look up by geography or by unit with one parameter.
func (s *PostgresStore) Resolve(ctx context.Context, filter string) ([]model.LineageEvent, error) {
	const base = `
		SELECT parent_id, child_id, event_year, event_type, confidence, weight_type
		FROM unit_lineage`

	ctx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	var (
		events []model.LineageEvent
		err    error
	)
	start := time.Now()
	if filter == "" {
		err = s.db.SelectContext(ctx, &events, base+` ORDER BY parent_id, event_year, child_id`)
	} else {
		err = s.db.SelectContext(ctx, &events, base+` WHERE region = $1 OR parent_id = $1 ORDER BY parent_id, event_year, child_id`, filter)
	}
	if err != nil {
		metrics.RecordStoreError("postgres")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	metrics.RecordStoreQuery("postgres", float64(time.Since(start).Milliseconds()))
	return events, nil
}

// Ping verifies connectivity within the configured timeout.
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: connect timeout", ErrStoreUnavailable)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
