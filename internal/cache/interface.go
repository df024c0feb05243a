// Package cache provides the byte-value caching layer behind translation
// views. Implementations must be safe for concurrent use.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cacher is the interface both cache backends implement. Values are raw
// bytes so the same interface serves in-process and Redis deployments.
type Cacher interface {
	// Get returns the value for key, or ErrCacheMiss when absent or
	// expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key starting with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// StatsProvider is implemented by backends that count hits and misses.
type StatsProvider interface {
	Stats() Stats
}

// Stats holds cache counters.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Items   int     `json:"items"`
	HitRate float64 `json:"hit_rate"`
}

// Error is the cache error type.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)

// Config selects and tunes a cache backend.
type Config struct {
	Type       string // "memory" or "redis"
	RedisURL   string
	Prefix     string
	DefaultTTL time.Duration
}

// New creates a cache backend from cfg. Unknown types fall back to
// memory.
func New(cfg Config) (Cacher, error) {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}
	switch cfg.Type {
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("cache type redis requires a redis URL")
		}
		return NewRedisCache(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
	default:
		return NewMemoryCache(cfg.DefaultTTL), nil
	}
}
