package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteCache(t *testing.T, cfg Config) *SQLiteCache {
	t.Helper()
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = filepath.Join(t.TempDir(), "scores.db")
	}
	c, err := NewSQLiteCache(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLiteCacheGetSet(t *testing.T) {
	c := newTestSQLiteCache(t, Config{})
	ctx := context.Background()

	_, found, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "fitness:a", EncodeScore(42), 0))

	value, found, err := c.Get(ctx, "fitness:a")
	require.NoError(t, err)
	require.True(t, found)
	score, ok := DecodeScore(value)
	require.True(t, ok)
	assert.Equal(t, 42, score)
}

func TestSQLiteCacheOverwrite(t *testing.T) {
	c := newTestSQLiteCache(t, Config{})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", EncodeScore(1), 0))
	require.NoError(t, c.Set(ctx, "k", EncodeScore(2), 0))

	value, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	score, _ := DecodeScore(value)
	assert.Equal(t, 2, score)
	assert.Equal(t, int64(8), c.Stats().Size)
}

func TestSQLiteCacheDeleteAndClear(t *testing.T) {
	c := newTestSQLiteCache(t, Config{})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", EncodeScore(1), 0))
	require.NoError(t, c.Set(ctx, "b", EncodeScore(2), 0))

	require.NoError(t, c.Delete(ctx, "a"))
	_, found, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)

	// deleting a missing key is not an error
	require.NoError(t, c.Delete(ctx, "a"))

	require.NoError(t, c.Clear(ctx))
	_, found, err = c.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, c.Stats().Size)
}

func TestSQLiteCacheTTLExpiry(t *testing.T) {
	c := newTestSQLiteCache(t, Config{})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", EncodeScore(1), 10*time.Millisecond))
	require.NoError(t, c.Set(ctx, "eternal", EncodeScore(2), 0))

	time.Sleep(30 * time.Millisecond)

	_, found, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = c.Get(ctx, "eternal")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSQLiteCacheDefaultTTL(t *testing.T) {
	c := newTestSQLiteCache(t, Config{DefaultTTL: 10 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", EncodeScore(1), 0))
	time.Sleep(30 * time.Millisecond)

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteCacheSizeBoundedEviction(t *testing.T) {
	// room for exactly three 8-byte scores
	c := newTestSQLiteCache(t, Config{MaxSize: 24})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), EncodeScore(i), 0))
	}

	// touch k0 so k1 carries the oldest access time
	_, found, err := c.Get(ctx, "k0")
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, c.Set(ctx, "k3", EncodeScore(3), 0))

	_, found, _ = c.Get(ctx, "k1")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "k0")
	assert.True(t, found)
	_, found, _ = c.Get(ctx, "k3")
	assert.True(t, found)
	assert.LessOrEqual(t, c.Stats().Size, int64(24))
}

func TestSQLiteCachePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.db")
	ctx := context.Background()

	first, err := NewSQLiteCache(Config{SQLite: SQLiteConfig{Path: path}})
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "warm", EncodeScore(7), 0))
	require.NoError(t, first.Close())

	second := newTestSQLiteCache(t, Config{SQLite: SQLiteConfig{Path: path}})
	value, found, err := second.Get(ctx, "warm")
	require.NoError(t, err)
	require.True(t, found)
	score, _ := DecodeScore(value)
	assert.Equal(t, 7, score)
	// the reopened store recounts its size from disk
	assert.Equal(t, int64(8), second.Stats().Size)
}

func TestSQLiteCacheStats(t *testing.T) {
	c := newTestSQLiteCache(t, Config{MaxSize: 1024})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", EncodeScore(1), 0))
	c.Get(ctx, "a")
	c.Get(ctx, "a")
	c.Get(ctx, "nope")
	c.Delete(ctx, "a")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(1), stats.Deletes)
	assert.Equal(t, int64(1024), stats.MaxSize)
	assert.Zero(t, stats.Size)
	assert.False(t, stats.LastAccess.IsZero())
}

func TestSQLiteCacheExportImport(t *testing.T) {
	src := newTestSQLiteCache(t, Config{})
	ctx := context.Background()

	require.NoError(t, src.Set(ctx, "a", EncodeScore(1), 0))
	require.NoError(t, src.Set(ctx, "b", EncodeScore(2), time.Hour))

	var entries []Entry
	require.NoError(t, src.Export(ctx, func(e Entry) error {
		entries = append(entries, e)
		return nil
	}))
	require.Len(t, entries, 2)

	dst := newTestSQLiteCache(t, Config{})
	require.NoError(t, dst.Import(ctx, entries))

	for key, want := range map[string]int{"a": 1, "b": 2} {
		value, found, err := dst.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, found, key)
		score, _ := DecodeScore(value)
		assert.Equal(t, want, score)
	}
}

func TestNewSelectsSQLiteBackend(t *testing.T) {
	c, err := New(Config{
		Type:   "sqlite",
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "scores.db")},
	})
	require.NoError(t, err)
	defer c.Close()
	_, ok := c.(*SQLiteCache)
	assert.True(t, ok)
}
