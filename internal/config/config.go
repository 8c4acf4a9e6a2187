// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env.
// - External errors are wrapped via this package's sentinel kinds.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MetricsDSN is the PostgreSQL DSN for the metric panel and lineage
	// table. Empty disables the relational store (fallback-only mode).
	MetricsDSN string `koanf:"metrics_dsn"`

	// FallbackPath points at the flat-file (CSV) panel used when the
	// relational store is unavailable. Empty disables the fallback.
	FallbackPath string `koanf:"fallback_path"`

	// FallbackTTLSeconds bounds the flat-file cache validity. Zero keeps
	// the cache for the process lifetime.
	FallbackTTLSeconds int `koanf:"fallback_ttl_seconds"`

	// RedisAddr enables the optional response cache when non-empty.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// CacheTTLSeconds bounds response cache entries.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// DefaultCrop and DefaultMetric fill omitted request parameters.
	DefaultCrop   string `koanf:"default_crop"`
	DefaultMetric string `koanf:"default_metric"`

	// ComparisonWindow is the half-width in years of the comparison
	// table windows around the split.
	ComparisonWindow int `koanf:"comparison_window"`

	// ImpactPositivePct and ImpactNegativePct are the classification
	// cut-offs for the impact assessment label.
	ImpactPositivePct float64 `koanf:"impact_positive_pct"`
	ImpactNegativePct float64 `koanf:"impact_negative_pct"`

	// Store pool bounds and connect timeout.
	StoreMaxOpenConns     int `koanf:"store_max_open_conns"`
	StoreMaxIdleConns     int `koanf:"store_max_idle_conns"`
	StoreConnectTimeoutMS int `koanf:"store_connect_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		FallbackPath:          "",
		FallbackTTLSeconds:    0,
		CacheTTLSeconds:       600,
		DefaultCrop:           "wheat",
		DefaultMetric:         "yield",
		ComparisonWindow:      5,
		ImpactPositivePct:     5,
		ImpactNegativePct:     -5,
		StoreMaxOpenConns:     25,
		StoreMaxIdleConns:     10,
		StoreConnectTimeoutMS: 3000,
	}
}

// StoreConnectTimeout returns the connect timeout as a duration.
func (c *Config) StoreConnectTimeout() time.Duration {
	return time.Duration(c.StoreConnectTimeoutMS) * time.Millisecond
}

// FallbackTTL returns the flat-file cache TTL as a duration.
func (c *Config) FallbackTTL() time.Duration {
	return time.Duration(c.FallbackTTLSeconds) * time.Second
}

// CacheTTL returns the response cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
