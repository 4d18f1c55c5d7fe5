package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mission-planner-service/internal/adapters/repositories"
	"mission-planner-service/internal/platform/db"
	"mission-planner-service/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestMemoryCacheTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	c := NewMemoryCache()
	c.now = clock.now

	assertTTLBehaviour(t, c, func(d time.Duration) { clock.t = clock.t.Add(d) })
}

func TestSqliteCacheTTL(t *testing.T) {
	conn, err := db.OpenSqlite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(conn, db.SQLite))

	clock := &fakeClock{t: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	c := NewSqliteCache(conn)
	c.now = clock.now

	assertTTLBehaviour(t, c, func(d time.Duration) { clock.t = clock.t.Add(d) })

	require.NoError(t, c.Put(context.Background(), "stale", []byte("x"), time.Minute))
	clock.t = clock.t.Add(2 * time.Minute)
	n, err := c.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestRedisCacheTTL(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	assertTTLBehaviour(t, NewRedisCache(client), srv.FastForward)
}

func assertTTLBehaviour(t *testing.T, c ports.Cache, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "geocode:thies")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "geocode:thies", []byte(`{"lon":-16.9,"lat":14.8}`), time.Hour))
	require.NoError(t, c.Put(ctx, "forever", []byte("1"), 0))

	got, ok, err := c.Get(ctx, "geocode:thies")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"lon":-16.9,"lat":14.8}`, string(got))

	// last write wins
	require.NoError(t, c.Put(ctx, "geocode:thies", []byte(`{"lon":1,"lat":2}`), time.Hour))
	got, ok, err = c.Get(ctx, "geocode:thies")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"lon":1,"lat":2}`, string(got))

	advance(2 * time.Hour)

	_, ok, err = c.Get(ctx, "geocode:thies")
	require.NoError(t, err)
	assert.False(t, ok, "entry should have expired")

	_, ok, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)
}
