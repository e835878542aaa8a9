package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *InMemoryCacheManager[string, int] {
	t.Helper()
	return NewInMemoryCacheManager[string, int]("test", DefaultExpiration, DefaultCleanupInterval)
}

func TestInMemoryCacheManager_SetGet(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	cache.Set(ctx, "a", 42, time.Minute)

	got, ok := cache.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, 42, got)
}

func TestInMemoryCacheManager_GetMissing(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	got, ok := cache.Get(ctx, "missing")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	cache.Set(ctx, "a", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := cache.Get(ctx, "a")
	require.False(t, ok, "entry should expire after its TTL")
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	cache.Set(ctx, "a", 1, time.Minute)
	cache.Set(ctx, "b", 2, time.Minute)

	require.NoError(t, cache.Delete(ctx, "a"))
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)

	require.NoError(t, cache.Flush(ctx))
	_, ok = cache.Get(ctx, "b")
	require.False(t, ok)
}
