// Package cache provides an optional Redis-backed response cache for
// reconciliation results.
//
// Caching is a caller concern, not part of the engine contract: the
// domain computation stays deterministic and request-scoped whether or
// not a cache sits in front of it. Cache failures are always treated as
// misses.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agrolens/agrolens/pkg/logger"
	"github.com/agrolens/agrolens/pkg/metrics"
)

// defaultTTL bounds how long a cached response stays valid.
const defaultTTL = 10 * time.Minute

// ResponseCache stores serialized responses under request-derived keys.
type ResponseCache interface {
	// Get returns the cached payload and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a payload. Best effort; errors are swallowed.
	Set(ctx context.Context, key string, payload []byte)
}

// RedisCache implements ResponseCache over a Redis client.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// Option applies a configuration option to the RedisCache.
type Option func(*RedisCache)

// WithTTL overrides the default entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(c *RedisCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(c *RedisCache) {
		if log != nil {
			c.log = log
		}
	}
}

// NewRedisCache creates a cache over the given address. Returns nil when
// addr is empty so callers can wire an optional cache unconditionally.
func NewRedisCache(addr, password string, db int, opts ...Option) *RedisCache {
	if addr == "" {
		return nil
	}
	c := &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get looks up a cached response.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if c.log != nil && err != redis.Nil {
			c.log.Debug(ctx, "cache get failed", logger.String("key", key), logger.Error(err))
		}
		metrics.RecordCacheMiss()
		return nil, false
	}
	metrics.RecordCacheHit()
	return b, true
}

// Set stores a response; failures only get logged.
func (c *RedisCache) Set(ctx context.Context, key string, payload []byte) {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil && c.log != nil {
		c.log.Debug(ctx, "cache set failed", logger.String("key", key), logger.Error(err))
	}
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
