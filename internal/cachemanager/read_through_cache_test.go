package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadThroughCache_CachesResult(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	rtc := NewReadThroughCache(cache, func(ctx context.Context, input string) (string, error) {
		calls++
		return input + "-result", nil
	}, false)

	got, err := rtc.Get(ctx, "k", "in", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "in-result", got)

	got, err = rtc.Get(ctx, "k", "in", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "in-result", got)
	require.Equal(t, 1, calls, "second Get should be served from cache")
}

func TestReadThroughCache_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	rtc := NewReadThroughCache(cache, func(ctx context.Context, input string) (string, error) {
		calls++
		return "", errors.New("boom")
	}, false)

	_, err := rtc.Get(ctx, "k", "in", time.Minute)
	require.Error(t, err)
	_, err = rtc.Get(ctx, "k", "in", time.Minute)
	require.Error(t, err)
	require.Equal(t, 2, calls, "errors must not be cached")
}

func TestReadThroughCache_SkipCache(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, int]("test", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	rtc := NewReadThroughCache(cache, func(ctx context.Context, input int) (int, error) {
		calls++
		return input * 2, nil
	}, true)

	for i := 0; i < 3; i++ {
		got, err := rtc.Get(ctx, "k", 21, time.Minute)
		require.NoError(t, err)
		require.Equal(t, 42, got)
	}
	require.Equal(t, 3, calls, "skip-cache mode must always invoke the function")
}
