// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agrolens/agrolens/internal/adapters/cache"
	"github.com/agrolens/agrolens/internal/adapters/repository"
	"github.com/agrolens/agrolens/internal/config"
	"github.com/agrolens/agrolens/internal/domain/comparison"
	"github.com/agrolens/agrolens/internal/domain/model"
	"github.com/agrolens/agrolens/internal/domain/pivot"
	"github.com/agrolens/agrolens/internal/domain/reconcile"
	"github.com/agrolens/agrolens/internal/domain/stats"
	"github.com/agrolens/agrolens/pkg/logger"
	"github.com/agrolens/agrolens/pkg/metrics"
)

// ReconcileRequest is the transport-agnostic request shape for one
// reconciliation. ParentID and SplitYear are required; Crop and Metric
// default to "wheat"/"yield"; Mode defaults to before_after.
type ReconcileRequest struct {
	ParentID  string   `json:"parent_id"`
	ChildIDs  []string `json:"child_ids"`
	SplitYear int      `json:"split_year"`
	Crop      string   `json:"crop"`
	Metric    string   `json:"metric"`
	Mode      string   `json:"mode"`
}

// SeriesDescriptor tells the presentation layer how to draw one series.
type SeriesDescriptor struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Style string `json:"style"` // "solid" or "dashed"
}

// SeriesPoint is one emitted point. Year is always set; the remaining
// keys depend on the mode: "value" for merged series, "parent" and one
// key per child id for parallel series.
type SeriesPoint map[string]any

// ReconcileResult is the full response triple.
type ReconcileResult struct {
	Series            []SeriesPoint      `json:"series"`
	SeriesDescriptors []SeriesDescriptor `json:"series_descriptors"`
	Stats             *stats.Summary     `json:"stats"`
}

// ComparisonRequest asks for the per-entity rolling comparison table.
type ComparisonRequest struct {
	ParentID  string   `json:"parent_id"`
	ChildIDs  []string `json:"child_ids"`
	SplitYear int      `json:"split_year"`
	Crop      string   `json:"crop"`
	Metric    string   `json:"metric"`
	Window    int      `json:"window"`
}

// Service orchestrates the per-request analytics flow: lineage -> fetch
// -> pivot -> reconcile -> statistics. All derived state is
// request-scoped; the only shared resources are the store pool, the
// flat-file cache and the optional response cache.
type Service struct {
	mu sync.RWMutex

	store     repository.MetricStore
	lineage   repository.LineageSource
	respCache cache.ResponseCache

	cfg        *config.Config
	classifier stats.Classifier

	started bool
	log     logger.Logger

	// Owned closers, populated by Start when the service opens its own
	// connections.
	closers []func() error
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig supplies the loaded process configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetricStore injects a metric store, bypassing Start's own wiring.
// Intended for tests.
func WithMetricStore(store repository.MetricStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLineageSource injects a lineage source, bypassing Start's wiring.
func WithLineageSource(src repository.LineageSource) Option {
	return func(s *Service) {
		s.lineage = src
	}
}

// WithResponseCache injects a response cache.
func WithResponseCache(c cache.ResponseCache) Option {
	return func(s *Service) {
		s.respCache = c
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start wires the stores described by the configuration. Injected
// dependencies win over configured ones, so tests can run without any
// external system.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get()
	}

	s.classifier = stats.NewClassifier(
		stats.WithThresholds(s.cfg.ImpactPositivePct, s.cfg.ImpactNegativePct),
	)

	if s.store == nil || s.lineage == nil {
		if err := s.wireStores(ctx); err != nil {
			return err
		}
	}
	if s.respCache == nil && s.cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB,
			cache.WithTTL(s.cfg.CacheTTL()),
			cache.WithLogger(s.log),
		)
		if rc != nil {
			s.respCache = rc
			s.closers = append(s.closers, rc.Close)
			s.log.Info(ctx, "response cache enabled", logger.String("addr", s.cfg.RedisAddr))
		}
	}

	s.started = true
	s.log.Info(ctx, "reconciliation service started",
		logger.String("default_crop", s.cfg.DefaultCrop),
		logger.String("default_metric", s.cfg.DefaultMetric),
		logger.Int("comparison_window", s.cfg.ComparisonWindow),
	)
	return nil
}

// wireStores builds the postgres store, flat-file fallback and lineage
// source from configuration. Called with the lock held.
func (s *Service) wireStores(ctx context.Context) error {
	var primary repository.MetricStore
	var pg *repository.PostgresStore

	if s.cfg.MetricsDSN != "" {
		var err error
		pg, err = repository.OpenPostgres(s.cfg.MetricsDSN,
			repository.WithConnectTimeout(s.cfg.StoreConnectTimeout()),
			repository.WithPoolLimits(s.cfg.StoreMaxOpenConns, s.cfg.StoreMaxIdleConns),
		)
		if err != nil {
			return fmt.Errorf("wire metric store: %w", err)
		}
		s.closers = append(s.closers, pg.Close)
		primary = pg
		s.log.Info(ctx, "using postgres metric store")
	}

	var secondary repository.MetricStore
	if s.cfg.FallbackPath != "" {
		ff := repository.NewFlatFileStore(s.cfg.FallbackPath,
			repository.WithCacheTTL(s.cfg.FallbackTTL()),
		)
		secondary = ff
		s.log.Info(ctx, "flat-file fallback enabled", logger.String("path", s.cfg.FallbackPath))
	}

	switch {
	case s.store != nil:
		// injected; leave as is
	case primary != nil:
		s.store = repository.NewFallbackStore(primary, secondary, s.log)
	case secondary != nil:
		s.store = secondary
	default:
		return fmt.Errorf("%w: no metric store configured", config.ErrInvalidConfig)
	}

	if s.lineage == nil {
		if pg == nil {
			s.log.Warn(ctx, "no lineage source configured; lineage lookups return empty")
			s.lineage = emptyLineage{}
		} else {
			s.lineage = pg
		}
	}
	return nil
}

// Stop releases owned resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	for _, closeFn := range s.closers {
		_ = closeFn()
	}
	s.closers = nil
	s.started = false
	s.log.Info(context.Background(), "reconciliation service stopped")
}

// Reconcile runs the full flow for one request and returns the
// series/descriptors/stats triple. Store failures degrade to an empty
// series; only invalid requests produce an error.
func (s *Service) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	start := time.Now()

	norm, metric, mode, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	cacheKey := requestKey(norm)
	if s.respCache != nil {
		if payload, ok := s.respCache.Get(ctx, cacheKey); ok {
			var cached ReconcileResult
			if err := json.Unmarshal(payload, &cached); err == nil {
				return &cached, nil
			}
			s.log.Warn(ctx, "dropping undecodable cache entry", logger.String("key", cacheKey))
		}
	}

	table := s.fetchTable(ctx, norm)

	result := &ReconcileResult{Series: []SeriesPoint{}}
	switch mode {
	case reconcile.ParentChild:
		points := reconcile.Parallel(table, norm.ParentID, norm.ChildIDs, norm.SplitYear, metric)
		result.Series = parallelPoints(points)
		result.SeriesDescriptors = parallelDescriptors(norm.ParentID, norm.ChildIDs)
	default:
		points := reconcile.Merged(table, norm.ParentID, norm.ChildIDs, norm.SplitYear, metric)
		result.Series = mergedPoints(points)
		result.SeriesDescriptors = []SeriesDescriptor{{
			ID:    norm.ParentID,
			Label: fmt.Sprintf("%s (reconciled)", norm.ParentID),
			Style: "solid",
		}}
		summary := stats.Summarize(points, norm.SplitYear, s.classifier)
		result.Stats = &summary
	}

	metrics.RecordReconcile(float64(time.Since(start).Milliseconds()), len(result.Series))

	if s.respCache != nil {
		if payload, err := json.Marshal(result); err == nil {
			s.respCache.Set(ctx, cacheKey, payload)
		}
	}
	return result, nil
}

// Lineage loads split events, optionally region-filtered. Fails soft: a
// broken source yields an empty list, and the caller surfaces a "no
// lineage data" state.
func (s *Service) Lineage(ctx context.Context, region string) []model.LineageEvent {
	if err := s.ready(); err != nil {
		return []model.LineageEvent{}
	}
	events, err := s.lineage.Resolve(ctx, region)
	if err != nil {
		s.log.Warn(ctx, "lineage source failed; returning no lineage data",
			logger.String("region", region), logger.Error(err))
		return []model.LineageEvent{}
	}
	if events == nil {
		events = []model.LineageEvent{}
	}
	metrics.UpdateLineageEvents(len(events))
	return events
}

// CompareTable computes per-entity rolling statistics around the split.
// The parent contributes all its years; children only contribute from
// the split year on, mirroring the suppression rule of parallel series.
func (s *Service) CompareTable(ctx context.Context, req ComparisonRequest) ([]comparison.RowStats, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	norm, metric, _, err := s.normalize(ReconcileRequest{
		ParentID:  req.ParentID,
		ChildIDs:  req.ChildIDs,
		SplitYear: req.SplitYear,
		Crop:      req.Crop,
		Metric:    req.Metric,
	})
	if err != nil {
		return nil, err
	}
	window := req.Window
	if window <= 0 {
		window = s.cfg.ComparisonWindow
	}

	table := s.fetchTable(ctx, norm)

	byEntity := make(map[string][]comparison.YearValue, 1+len(norm.ChildIDs))
	for _, year := range table.Years() {
		units := table[year]
		if u, ok := units[norm.ParentID]; ok {
			byEntity[norm.ParentID] = append(byEntity[norm.ParentID], comparison.YearValue{Year: year, Value: metric.Select(u)})
		}
		if year < norm.SplitYear {
			continue
		}
		for _, id := range norm.ChildIDs {
			if u, ok := units[id]; ok {
				byEntity[id] = append(byEntity[id], comparison.YearValue{Year: year, Value: metric.Select(u)})
			}
		}
	}
	return comparison.Tabulate(byEntity, norm.SplitYear, window), nil
}

// ready reports whether Start has completed.
func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"started":           s.started,
		"default_crop":      s.cfg.DefaultCrop,
		"default_metric":    s.cfg.DefaultMetric,
		"comparison_window": s.cfg.ComparisonWindow,
		"cache_enabled":     s.respCache != nil,
	}
}

// normalize validates required fields and applies defaults and case
// normalization.
func (s *Service) normalize(req ReconcileRequest) (ReconcileRequest, reconcile.Metric, reconcile.Mode, error) {
	if strings.TrimSpace(req.ParentID) == "" {
		return req, 0, 0, fmt.Errorf("%w: missing parent_id", ErrInvalidRequest)
	}
	if req.SplitYear == 0 {
		return req, 0, 0, fmt.Errorf("%w: missing split_year", ErrInvalidRequest)
	}

	req.ParentID = strings.TrimSpace(req.ParentID)
	children := make([]string, 0, len(req.ChildIDs))
	for _, id := range req.ChildIDs {
		if id = strings.TrimSpace(id); id != "" {
			children = append(children, id)
		}
	}
	req.ChildIDs = children

	req.Crop = strings.ToLower(strings.TrimSpace(req.Crop))
	if req.Crop == "" {
		req.Crop = s.cfg.DefaultCrop
	}
	if req.Metric == "" {
		req.Metric = s.cfg.DefaultMetric
	}

	metric, err := reconcile.ParseMetric(req.Metric)
	if err != nil {
		return req, 0, 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Metric = metric.String()

	mode, err := reconcile.ParseMode(req.Mode)
	if err != nil {
		return req, 0, 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Mode = mode.String()

	return req, metric, mode, nil
}

// fetchTable pulls the raw panel for the request's unit set and pivots
// it. Store unavailability is absorbed here: the computation runs on an
// empty table rather than failing the request.
func (s *Service) fetchTable(ctx context.Context, req ReconcileRequest) model.YearTable {
	unitIDs := append([]string{req.ParentID}, req.ChildIDs...)
	variables := []string{
		req.Crop + "_" + model.SuffixArea,
		req.Crop + "_" + model.SuffixProduction,
		req.Crop + "_" + model.SuffixYield,
	}

	rows, err := s.store.Fetch(ctx, unitIDs, variables, model.YearRange{})
	if err != nil {
		s.log.Warn(ctx, "metric fetch failed; proceeding with empty panel",
			logger.String("parent", req.ParentID), logger.Error(err))
		return model.YearTable{}
	}
	return pivot.Table(rows)
}

// requestKey derives a stable cache key from a normalized request.
func requestKey(req ReconcileRequest) string {
	children := append([]string(nil), req.ChildIDs...)
	sort.Strings(children)
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%s|%s|%s",
		req.ParentID, strings.Join(children, ","), req.SplitYear, req.Crop, req.Metric, req.Mode)))
	return "agrolens:reconcile:" + hex.EncodeToString(h[:16])
}

// mergedPoints renders merged series points into the wire shape.
func mergedPoints(points []reconcile.MergedPoint) []SeriesPoint {
	out := make([]SeriesPoint, len(points))
	for i, p := range points {
		out[i] = SeriesPoint{"year": p.Year, "value": p.Value}
	}
	return out
}

// parallelPoints renders parallel series points into the wire shape:
// each child's value sits under its own unit id.
func parallelPoints(points []reconcile.ParallelPoint) []SeriesPoint {
	out := make([]SeriesPoint, len(points))
	for i, p := range points {
		sp := SeriesPoint{"year": p.Year}
		if p.Parent != nil {
			sp["parent"] = *p.Parent
		}
		for id, v := range p.Children {
			sp[id] = v
		}
		out[i] = sp
	}
	return out
}

// parallelDescriptors labels the parent solid and each child dashed.
func parallelDescriptors(parentID string, childIDs []string) []SeriesDescriptor {
	descs := make([]SeriesDescriptor, 0, 1+len(childIDs))
	descs = append(descs, SeriesDescriptor{ID: "parent", Label: parentID, Style: "solid"})
	for _, id := range childIDs {
		descs = append(descs, SeriesDescriptor{ID: id, Label: id, Style: "dashed"})
	}
	return descs
}

// emptyLineage satisfies LineageSource when nothing is configured.
type emptyLineage struct{}

func (emptyLineage) Resolve(context.Context, string) ([]model.LineageEvent, error) {
	return nil, nil
}
