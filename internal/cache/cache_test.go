package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/eventplanner/internal/domain"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Draft: &domain.EventDraft{
			EventType: "wedding",
			Date:      "2025-03-01",
			Guests:    domain.Count(120),
			Budget:    domain.Count(500000),
			Location:  "Jaipur",
		},
		Turns: []domain.Turn{
			{Question: "Can we add a band?", Answer: "Yes, budget 40k."},
			{Question: "Vegan menu?", Answer: "Sure."},
		},
	}
}

func runContract(t *testing.T, newCache func(t *testing.T) Cache) {
	ctx := context.Background()

	t.Run("empty load", func(t *testing.T) {
		c := newCache(t)
		snap, err := c.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, snap.Draft)
		assert.Nil(t, snap.Turns)
	})

	t.Run("save then load", func(t *testing.T) {
		c := newCache(t)
		want := sampleSnapshot()
		require.NoError(t, c.Save(ctx, want))

		got, err := c.Load(ctx)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.Save(ctx, sampleSnapshot()))
		next := Snapshot{Draft: &domain.EventDraft{EventType: "party"}}
		require.NoError(t, c.Save(ctx, next))

		got, err := c.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, got.Draft)
		assert.Equal(t, "party", got.Draft.EventType)
		assert.Equal(t, []domain.Turn{}, got.Turns)
	})

	t.Run("clear", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.Save(ctx, sampleSnapshot()))
		require.NoError(t, c.Clear(ctx))

		got, err := c.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, got.Draft)
		assert.Nil(t, got.Turns)
	})
}

func TestMemoryCache(t *testing.T) {
	runContract(t, func(t *testing.T) Cache { return NewMemory() })
}

func TestSQLiteCache(t *testing.T) {
	runContract(t, func(t *testing.T) Cache {
		c, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"), "user-1")
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		return c
	})
}

func TestSQLiteCacheSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := NewSQLite(path, "user-1")
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, sampleSnapshot()))
	require.NoError(t, c.Close())

	c, err = NewSQLite(path, "user-1")
	require.NoError(t, err)
	defer c.Close()

	got, err := c.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.Draft)
	assert.Equal(t, "wedding", got.Draft.EventType)
	assert.Len(t, got.Turns, 2)
}

func TestSQLiteCacheScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	a, err := NewSQLite(path, "alice")
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Save(ctx, sampleSnapshot()))
	require.NoError(t, a.Close())

	b, err := NewSQLite(path, "bob")
	require.NoError(t, err)
	defer b.Close()
	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got.Draft)
}

func TestSQLiteCacheCorruptValueIsAbsent(t *testing.T) {
	ctx := context.Background()
	c, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"), "u")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Save(ctx, sampleSnapshot()))
	_, err = c.db.Exec(`UPDATE cache_entries SET value = '{not json' WHERE key = ?`, KeyDraft)
	require.NoError(t, err)

	got, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got.Draft)
	assert.Len(t, got.Turns, 2)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("PLANNER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PLANNER_TEST_REDIS_ADDR not set")
	}
	runContract(t, func(t *testing.T) Cache {
		client := redis.NewClient(&redis.Options{Addr: addr})
		c := newRedisWithClient(client, "planner-test", t.Name())
		t.Cleanup(func() {
			_ = c.Clear(context.Background())
			_ = c.Close()
		})
		return c
	})
}

func TestOpen(t *testing.T) {
	c, err := Open(Config{Backend: BackendMemory}, "x")
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	c, err = Open(Config{Path: filepath.Join(t.TempDir(), "c.db")}, "x")
	require.NoError(t, err)
	assert.IsType(t, &SQLiteCache{}, c)
	require.NoError(t, c.Close())

	_, err = Open(Config{Backend: "etcd"}, "x")
	assert.Error(t, err)
}
