// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/folio/internal/platform/constants"
)

// scanBatch is the COUNT hint for SCAN during invalidation.
const scanBatch = 200

// errStaleGeneration aborts a conditional write after a concurrent invalidation.
var errStaleGeneration = errors.New("cache: generation changed")

// RedisOptions configures a [Redis] cache.
type RedisOptions struct {
	// DefaultTTL applies to Set calls with a negative TTL.
	DefaultTTL time.Duration

	// Prefix isolates cache keys inside a shared database.
	Prefix string

	// Registerer receives the cache metrics. Optional.
	Registerer prometheus.Registerer

	// Logger reports backend failures. Defaults to [slog.Default].
	Logger *slog.Logger
}

// Redis is a [Cache] backed by Redis. Expiry is delegated to Redis TTLs, so no
// sweeper is needed. Backend errors are logged and treated as misses.
type Redis struct {
	client        *redis.Client
	prefix        string
	generationKey string
	defaultTTL    time.Duration
	metrics       *cacheMetrics
	logger        *slog.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, options RedisOptions) (*Redis, error) {
	metrics, err := newCacheMetrics(options.Registerer, "redis")
	if err != nil {
		return nil, err
	}

	if options.DefaultTTL <= 0 {
		options.DefaultTTL = constants.DefaultCacheTTL
	}
	if options.Prefix == "" {
		options.Prefix = constants.CacheKeyPrefixRedis
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Redis{
		client:        client,
		prefix:        options.Prefix,
		generationKey: options.Prefix + "~generation",
		defaultTTL:    options.DefaultTTL,
		metrics:       metrics,
		logger:        options.Logger,
	}, nil
}

// Get returns the value for key. Redis never returns expired keys.
func (cache *Redis) Get(context context.Context, key string) ([]byte, bool) {
	value, err := cache.client.Get(context, cache.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.warn("cache_get_failed", key, err)
		}
		cache.metrics.misses.Inc()
		return nil, false
	}

	cache.metrics.hits.Inc()
	return value, true
}

// Set stores value under key. A zero ttl deletes the key instead, since Redis
// treats zero as "no expiry".
func (cache *Redis) Set(context context.Context, key string, value []byte, ttl time.Duration) {
	if ttl < 0 {
		ttl = cache.defaultTTL
	}

	var err error
	if ttl == 0 {
		err = cache.client.Del(context, cache.prefix+key).Err()
	} else {
		err = cache.client.Set(context, cache.prefix+key, value, ttl).Err()
	}

	if err != nil {
		cache.warn("cache_set_failed", key, err)
		return
	}
	cache.metrics.sets.Inc()
}

// SetIfGeneration stores value inside a WATCH on the generation key.
func (cache *Redis) SetIfGeneration(context context.Context, key string, value []byte, ttl time.Duration, generation uint64) bool {
	if ttl < 0 {
		ttl = cache.defaultTTL
	}
	if ttl == 0 {
		return false
	}

	err := cache.client.Watch(context, func(transaction *redis.Tx) error {
		current, err := transaction.Get(context, cache.generationKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}

		_, err = transaction.TxPipelined(context, func(pipe redis.Pipeliner) error {
			pipe.Set(context, cache.prefix+key, value, ttl)
			return nil
		})
		return err
	}, cache.generationKey)

	if err != nil {
		if !errors.Is(err, errStaleGeneration) && !errors.Is(err, redis.TxFailedErr) {
			cache.warn("cache_set_failed", key, err)
		}
		return false
	}

	cache.metrics.sets.Inc()
	return true
}

// Invalidate bumps the generation, then deletes every matching key.
//
// Bumping first guarantees that a fill started before this call cannot land
// after the delete pass.
func (cache *Redis) Invalidate(context context.Context, pattern string) int {
	if err := cache.client.Incr(context, cache.generationKey).Err(); err != nil {
		cache.warn("cache_generation_bump_failed", pattern, err)
	}

	matches := matcher(pattern)
	removed := 0

	iterator := cache.client.Scan(context, 0, cache.prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)

	for iterator.Next(context) {
		fullKey := iterator.Val()
		if fullKey == cache.generationKey {
			continue
		}
		if matches(strings.TrimPrefix(fullKey, cache.prefix)) {
			batch = append(batch, fullKey)
		}
		if len(batch) == scanBatch {
			removed += cache.delete(context, batch)
			batch = batch[:0]
		}
	}
	if err := iterator.Err(); err != nil {
		cache.warn("cache_scan_failed", pattern, err)
	}
	if len(batch) > 0 {
		removed += cache.delete(context, batch)
	}

	cache.metrics.invalidations.Add(float64(removed))
	return removed
}

// Generation returns the shared invalidation counter.
func (cache *Redis) Generation(context context.Context) uint64 {
	generation, err := cache.client.Get(context, cache.generationKey).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		cache.warn("cache_generation_read_failed", cache.generationKey, err)
	}
	return generation
}

// delete removes keys and returns how many existed.
func (cache *Redis) delete(context context.Context, keys []string) int {
	count, err := cache.client.Del(context, keys...).Result()
	if err != nil {
		cache.warn("cache_delete_failed", strings.Join(keys, ","), err)
		return 0
	}
	return int(count)
}

// warn logs a degraded cache operation.
func (cache *Redis) warn(event, key string, err error) {
	cache.logger.Warn(event, slog.String("key", key), slog.Any("error", err))
}
