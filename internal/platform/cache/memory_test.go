// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/folio/internal/platform/cache"
	"github.com/taibuivan/folio/internal/platform/constants"
)

// fakeClock is a manually advanced clock shared by a test and its cache.
type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.current
}

func (clock *fakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	clock.current = clock.current.Add(d)
	clock.mu.Unlock()
}

func newMemory(t *testing.T, clock *fakeClock) *cache.Memory {
	t.Helper()

	memory, err := cache.NewMemory(context.Background(), cache.MemoryOptions{
		DefaultTTL: time.Minute,
		Now:        clock.Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = memory.Close() })

	return memory
}

/*
TestMemory_TTL verifies that no entry is served once its TTL has lapsed.
*/
func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{current: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	memory := newMemory(t, clock)

	memory.Set(ctx, "images:1", []byte("a"), 10*time.Second)
	memory.Set(ctx, "images:2", []byte("b"), cache.DefaultTTL)

	value, ok := memory.Get(ctx, "images:1")
	require.True(t, ok)
	assert.Equal(t, []byte("a"), value)

	// 1. Exactly at expiry the entry is stale and evicted on read
	clock.Advance(10 * time.Second)
	_, ok = memory.Get(ctx, "images:1")
	assert.False(t, ok)
	assert.Equal(t, 1, memory.Len())

	// 2. Default TTL is one minute
	clock.Advance(49 * time.Second)
	_, ok = memory.Get(ctx, "images:2")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = memory.Get(ctx, "images:2")
	assert.False(t, ok)
	assert.Zero(t, memory.Len())
}

/*
TestMemory_ZeroTTL verifies an entry with TTL zero is never returned.
*/
func TestMemory_ZeroTTL(t *testing.T) {
	ctx := context.Background()
	memory := newMemory(t, &fakeClock{current: time.Now()})

	memory.Set(ctx, "series:list", []byte("x"), 0)

	_, ok := memory.Get(ctx, "series:list")
	assert.False(t, ok)
}

/*
TestMemory_Invalidate covers regex and substring pattern matching.
*/
func TestMemory_Invalidate(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		removed   int
		survivors []string
	}{
		{"namespace_prefix", cache.Prefix(constants.CacheNamespaceSeries), 2, []string{"images:1", "categories:list"}},
		{"regex", `^(images|categories):`, 2, []string{"series:1", "series:list:1:20"}},
		{"substring_fallback", "list(", 0, []string{"images:1", "series:1", "series:list:1:20", "categories:list"}},
		{"substring_anywhere", "list", 2, []string{"images:1", "series:1"}},
		{"no_match", "^albums:", 0, []string{"images:1", "series:1", "series:list:1:20", "categories:list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			memory := newMemory(t, &fakeClock{current: time.Now()})

			for _, key := range []string{"images:1", "series:1", "series:list:1:20", "categories:list"} {
				memory.Set(ctx, key, []byte(key), time.Hour)
			}

			assert.Equal(t, tt.removed, memory.Invalidate(ctx, tt.pattern))
			assert.Equal(t, len(tt.survivors), memory.Len())

			for _, key := range tt.survivors {
				_, ok := memory.Get(ctx, key)
				assert.True(t, ok, key)
			}
		})
	}
}

/*
TestMemory_Sweep verifies the sweep purges only expired entries.
*/
func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{current: time.Now()}
	memory := newMemory(t, clock)

	memory.Set(ctx, "a", []byte("1"), time.Second)
	memory.Set(ctx, "b", []byte("2"), time.Hour)

	clock.Advance(2 * time.Second)

	assert.Equal(t, 1, memory.Sweep())
	assert.Equal(t, 1, memory.Len())
}

/*
TestMemory_BackgroundSweep verifies the sweeper goroutine runs and stops on Close.
*/
func TestMemory_BackgroundSweep(t *testing.T) {
	ctx := context.Background()
	memory, err := cache.NewMemory(ctx, cache.MemoryOptions{SweepInterval: 10 * time.Millisecond})
	require.NoError(t, err)

	memory.Set(ctx, "short", []byte("1"), time.Millisecond)

	assert.Eventually(t, func() bool { return memory.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, memory.Close())
	require.NoError(t, memory.Close())
}

/*
TestMemory_CopiesValues verifies callers cannot alter a cached entry through
the slice they stored or the slice they read.
*/
func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	memory := newMemory(t, &fakeClock{current: time.Now()})

	stored := []byte("dawn")
	memory.Set(ctx, "images:1", stored, cache.DefaultTTL)
	stored[0] = 'X'

	read, ok := memory.Get(ctx, "images:1")
	require.True(t, ok)
	assert.Equal(t, []byte("dawn"), read)

	read[0] = 'Y'
	again, ok := memory.Get(ctx, "images:1")
	require.True(t, ok)
	assert.Equal(t, []byte("dawn"), again)
}

/*
TestMemory_Concurrent exercises every operation from parallel goroutines.
Run with -race to check the locking.
*/
func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{current: time.Now()}
	memory := newMemory(t, clock)

	const workers = 16

	var wg sync.WaitGroup
	for worker := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			key := cache.Key(constants.CacheNamespaceSeries, strconv.Itoa(worker))
			for round := range 50 {
				memory.Set(ctx, key, []byte(`{"round":1}`), 10*time.Millisecond)
				memory.Get(ctx, key)

				_, err := cache.Fetch(ctx, memory, cache.Key(constants.CacheNamespaceImages, strconv.Itoa(round%4)), cache.DefaultTTL, func(context.Context) (int, error) {
					return round, nil
				})
				assert.NoError(t, err)

				switch round % 10 {
				case 0:
					memory.Invalidate(ctx, cache.Prefix(constants.CacheNamespaceImages))
				case 5:
					clock.Advance(time.Millisecond)
					memory.Sweep()
				}
			}
		}()
	}
	wg.Wait()

	// Every series entry has expired by now and the sweep clears them all.
	clock.Advance(time.Minute)
	memory.Sweep()
	assert.Zero(t, memory.Len())
}

/*
TestFetch_ReadThrough verifies loads happen once and results are cached.
*/
func TestFetch_ReadThrough(t *testing.T) {
	ctx := context.Background()
	memory := newMemory(t, &fakeClock{current: time.Now()})

	type payload struct {
		Title string `json:"title"`
	}

	loads := 0
	load := func(context.Context) (payload, error) {
		loads++
		return payload{Title: "Iceland"}, nil
	}

	for range 3 {
		value, err := cache.Fetch(ctx, memory, "series:1", cache.DefaultTTL, load)
		require.NoError(t, err)
		assert.Equal(t, "Iceland", value.Title)
	}
	assert.Equal(t, 1, loads)

	memory.Invalidate(ctx, cache.Prefix(constants.CacheNamespaceSeries))

	_, err := cache.Fetch(ctx, memory, "series:1", cache.DefaultTTL, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

/*
TestFetch_RaceWithInvalidation verifies a load overlapping an invalidation is not cached.
*/
func TestFetch_RaceWithInvalidation(t *testing.T) {
	ctx := context.Background()
	memory := newMemory(t, &fakeClock{current: time.Now()})

	value, err := cache.Fetch(ctx, memory, "images:1", cache.DefaultTTL, func(ctx context.Context) (string, error) {
		// A writer invalidates while this read is still loading
		memory.Invalidate(ctx, cache.Prefix(constants.CacheNamespaceImages))
		return "stale", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", value)

	_, ok := memory.Get(ctx, "images:1")
	assert.False(t, ok)
}

/*
TestFetch_LoadError verifies errors are returned and never cached.
*/
func TestFetch_LoadError(t *testing.T) {
	ctx := context.Background()
	memory := newMemory(t, &fakeClock{current: time.Now()})

	_, err := cache.Fetch(ctx, memory, "images:1", cache.DefaultTTL, func(context.Context) (int, error) {
		return 0, errors.New("store down")
	})
	assert.Error(t, err)
	assert.Zero(t, memory.Len())
}

/*
TestMemory_Metrics verifies metrics register once per registry.
*/
func TestMemory_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	_, err := cache.NewMemory(context.Background(), cache.MemoryOptions{Registerer: registry})
	require.NoError(t, err)

	_, err = cache.NewMemory(context.Background(), cache.MemoryOptions{Registerer: registry})
	assert.Error(t, err)
}

/*
TestKey builds namespaced keys.
*/
func TestKey(t *testing.T) {
	assert.Equal(t, "series:slug:iceland", cache.Key(constants.CacheNamespaceSeries, "slug", "iceland"))
	assert.Equal(t, "images:", cache.Key(constants.CacheNamespaceImages))
}
