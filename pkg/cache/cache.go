// Package cache provides the persistent fitness-score cache. Evaluations of
// expensive fitness functions are stored keyed by the chromosome's genes
// hash, so re-encountered gene sequences skip recomputation, within a run
// through the memory backend or across runs through the SQLite backend.
package cache

import (
	"context"
	"time"
)

// Cache is the score-store contract shared by the memory and SQLite
// backends. Implementations are safe for concurrent use; the parallel
// fitness evaluator calls Get and Set from multiple workers.
type Cache interface {
	// Get retrieves a cached value by key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given key and TTL. A zero TTL falls back
	// to the configured default; zero default means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a cached value by key.
	Delete(ctx context.Context, key string) error

	// Clear removes all cached values.
	Clear(ctx context.Context) error

	// Stats returns cache performance counters.
	Stats() Stats

	// Close releases any resources held by the cache.
	Close() error
}

// Stats contains cache performance counters.
type Stats struct {
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Sets       int64     `json:"sets"`
	Deletes    int64     `json:"deletes"`
	Size       int64     `json:"size"`
	MaxSize    int64     `json:"max_size"`
	LastAccess time.Time `json:"last_access"`
}

// Entry is one stored score in export/import form, used to move a warm
// score store between backends or machines.
type Entry struct {
	Key        string    `json:"key"`
	Value      []byte    `json:"value"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	AccessedAt time.Time `json:"accessed_at"`
	Size       int64     `json:"size"`
}

// IsExpired checks if the entry has expired.
func (e *Entry) IsExpired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// Config holds cache configuration.
type Config struct {
	// Type of cache: "memory" or "sqlite"
	Type string `json:"type" yaml:"type"`

	// Maximum cache size in bytes (0 = unlimited)
	MaxSize int64 `json:"max_size" yaml:"max_size"`

	// Default TTL for cache entries (0 = no expiration)
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`

	// SQLite specific configuration
	SQLite SQLiteConfig `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`

	// Memory cache specific configuration
	Memory MemoryConfig `json:"memory,omitempty" yaml:"memory,omitempty"`
}

// SQLiteConfig holds SQLite-specific configuration.
type SQLiteConfig struct {
	// Path to the SQLite database file
	Path string `json:"path" yaml:"path"`

	// Enable WAL mode for better concurrent performance
	EnableWAL bool `json:"enable_wal" yaml:"enable_wal"`

	// Vacuum interval for database maintenance
	VacuumInterval time.Duration `json:"vacuum_interval" yaml:"vacuum_interval"`

	// Maximum number of connections
	MaxConnections int `json:"max_connections" yaml:"max_connections"`
}

// MemoryConfig holds memory cache specific configuration.
type MemoryConfig struct {
	// Cleanup interval for expired entries
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// New creates a cache instance based on the configuration, defaulting to the
// memory backend.
func New(config Config) (Cache, error) {
	switch config.Type {
	case "sqlite":
		return NewSQLiteCache(config)
	default:
		return NewMemoryCache(config)
	}
}
