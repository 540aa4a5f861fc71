// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/folio/internal/platform/cache"
	"github.com/taibuivan/folio/internal/platform/constants"
)

func newRedis(t *testing.T) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend, err := cache.NewRedis(client, cache.RedisOptions{DefaultTTL: time.Minute})
	require.NoError(t, err)

	return backend, server
}

/*
TestRedis_SetGet verifies values round-trip and expire through Redis TTLs.
*/
func TestRedis_SetGet(t *testing.T) {
	ctx := context.Background()
	backend, server := newRedis(t)

	backend.Set(ctx, "images:1", []byte("a"), 10*time.Second)

	value, ok := backend.Get(ctx, "images:1")
	require.True(t, ok)
	assert.Equal(t, []byte("a"), value)
	assert.True(t, server.Exists(constants.CacheKeyPrefixRedis+"images:1"))

	server.FastForward(11 * time.Second)

	_, ok = backend.Get(ctx, "images:1")
	assert.False(t, ok)
}

/*
TestRedis_ZeroTTL verifies TTL zero never stores a servable value.
*/
func TestRedis_ZeroTTL(t *testing.T) {
	ctx := context.Background()
	backend, _ := newRedis(t)

	backend.Set(ctx, "series:1", []byte("old"), time.Hour)
	backend.Set(ctx, "series:1", []byte("new"), 0)

	_, ok := backend.Get(ctx, "series:1")
	assert.False(t, ok)
}

/*
TestRedis_Invalidate verifies pattern invalidation and generation bumps.
*/
func TestRedis_Invalidate(t *testing.T) {
	ctx := context.Background()
	backend, _ := newRedis(t)

	for _, key := range []string{"images:1", "series:1", "series:list:1:20"} {
		backend.Set(ctx, key, []byte(key), time.Hour)
	}

	before := backend.Generation(ctx)
	removed := backend.Invalidate(ctx, cache.Prefix(constants.CacheNamespaceSeries))

	assert.Equal(t, 2, removed)
	assert.Equal(t, before+1, backend.Generation(ctx))

	_, ok := backend.Get(ctx, "series:1")
	assert.False(t, ok)
	_, ok = backend.Get(ctx, "images:1")
	assert.True(t, ok)
}

/*
TestRedis_SetIfGeneration rejects writes that raced an invalidation.
*/
func TestRedis_SetIfGeneration(t *testing.T) {
	ctx := context.Background()
	backend, _ := newRedis(t)

	generation := backend.Generation(ctx)
	assert.True(t, backend.SetIfGeneration(ctx, "categories:list", []byte("v1"), cache.DefaultTTL, generation))

	backend.Invalidate(ctx, cache.Prefix(constants.CacheNamespaceImages))

	assert.False(t, backend.SetIfGeneration(ctx, "categories:list", []byte("v2"), cache.DefaultTTL, generation))

	value, ok := backend.Get(ctx, "categories:list")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), value)
}

/*
TestRedis_Unavailable verifies a dead backend degrades to misses.
*/
func TestRedis_Unavailable(t *testing.T) {
	ctx := context.Background()
	backend, server := newRedis(t)

	server.Close()

	backend.Set(ctx, "images:1", []byte("a"), time.Hour)
	_, ok := backend.Get(ctx, "images:1")
	assert.False(t, ok)
	assert.Zero(t, backend.Invalidate(ctx, "images"))
}
