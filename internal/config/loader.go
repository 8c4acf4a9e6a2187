package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if AGROLENS_CONFIG is set
//  3. env (prefix AGROLENS_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("AGROLENS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: AGROLENS_ADDR, AGROLENS_METRICS_DSN, ...
	// Keys map to the flat koanf tags; underscores are preserved.
	envProvider := env.Provider("AGROLENS_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "agrolens_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.ComparisonWindow < 1 {
		return fmt.Errorf("%w: comparison_window must be at least 1", ErrInvalidConfig)
	}
	if cfg.ImpactPositivePct <= cfg.ImpactNegativePct {
		return fmt.Errorf("%w: impact_positive_pct must exceed impact_negative_pct", ErrInvalidConfig)
	}
	if cfg.MetricsDSN == "" && cfg.FallbackPath == "" {
		return fmt.Errorf("%w: at least one of metrics_dsn or fallback_path must be set", ErrInvalidConfig)
	}
	return nil
}
