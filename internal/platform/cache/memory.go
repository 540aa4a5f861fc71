// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taibuivan/folio/internal/platform/constants"
)

// memoryEntry is a single cached payload with its absolute expiry.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// expired reports whether the entry must no longer be served at now.
func (e *memoryEntry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// MemoryOptions configures a [Memory] cache.
type MemoryOptions struct {
	// DefaultTTL applies to Set calls with a negative TTL.
	DefaultTTL time.Duration

	// SweepInterval is how often expired entries are purged. Zero disables the sweeper.
	SweepInterval time.Duration

	// Registerer receives the cache metrics. Optional.
	Registerer prometheus.Registerer

	// Logger reports sweeper activity. Defaults to [slog.Default].
	Logger *slog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Memory is a thread-safe, in-process TTL cache with pattern invalidation.
//
// It is an explicitly constructed component; every instance is isolated.
type Memory struct {
	mu         sync.RWMutex
	items      map[string]*memoryEntry
	generation uint64

	defaultTTL time.Duration
	now        func() time.Time
	metrics    *cacheMetrics
	logger     *slog.Logger

	// Background sweep coordination
	shutdown  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemory creates an in-memory cache and starts its sweeper, bound to context.
func NewMemory(context context.Context, options MemoryOptions) (*Memory, error) {
	metrics, err := newCacheMetrics(options.Registerer, "memory")
	if err != nil {
		return nil, err
	}

	if options.DefaultTTL <= 0 {
		options.DefaultTTL = constants.DefaultCacheTTL
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	memory := &Memory{
		items:      make(map[string]*memoryEntry),
		defaultTTL: options.DefaultTTL,
		now:        options.Now,
		metrics:    metrics,
		logger:     options.Logger,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}

	if options.SweepInterval > 0 {
		go memory.sweepLoop(context, options.SweepInterval)
	} else {
		close(memory.done)
	}

	return memory, nil
}

// Get returns a copy of the value for key if present and not expired.
func (memory *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	memory.mu.RLock()
	entry, exists := memory.items[key]
	memory.mu.RUnlock()

	if !exists {
		memory.metrics.misses.Inc()
		return nil, false
	}

	if entry.expired(memory.now()) {
		memory.mu.Lock()
		// Double-check it's still the same stale entry
		if current, stillExists := memory.items[key]; stillExists && current.expired(memory.now()) {
			delete(memory.items, key)
			memory.metrics.evictions.Inc()
			memory.metrics.size.Set(float64(len(memory.items)))
		}
		memory.mu.Unlock()

		memory.metrics.misses.Inc()
		return nil, false
	}

	memory.metrics.hits.Inc()
	return slices.Clone(entry.value), true
}

// Set stores value under key. A negative ttl selects the default TTL.
func (memory *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	memory.mu.Lock()
	memory.store(key, value, ttl)
	memory.mu.Unlock()
}

// SetIfGeneration stores value only if no invalidation happened since generation.
func (memory *Memory) SetIfGeneration(_ context.Context, key string, value []byte, ttl time.Duration, generation uint64) bool {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if memory.generation != generation {
		return false
	}

	memory.store(key, value, ttl)
	return true
}

// store writes an entry. Callers must hold the write lock.
func (memory *Memory) store(key string, value []byte, ttl time.Duration) {
	if ttl < 0 {
		ttl = memory.defaultTTL
	}

	memory.items[key] = &memoryEntry{
		value:     slices.Clone(value),
		expiresAt: memory.now().Add(ttl),
	}

	memory.metrics.sets.Inc()
	memory.metrics.size.Set(float64(len(memory.items)))
}

// Invalidate removes every key matching pattern, regardless of remaining TTL.
func (memory *Memory) Invalidate(_ context.Context, pattern string) int {
	matches := matcher(pattern)

	memory.mu.Lock()
	memory.generation++

	removed := 0
	for key := range memory.items {
		if matches(key) {
			delete(memory.items, key)
			removed++
		}
	}
	size := len(memory.items)
	memory.mu.Unlock()

	memory.metrics.invalidations.Add(float64(removed))
	memory.metrics.size.Set(float64(size))

	return removed
}

// Generation returns the invalidation counter.
func (memory *Memory) Generation(_ context.Context) uint64 {
	memory.mu.RLock()
	defer memory.mu.RUnlock()
	return memory.generation
}

// Len returns the number of stored entries, expired ones not yet swept included.
func (memory *Memory) Len() int {
	memory.mu.RLock()
	defer memory.mu.RUnlock()
	return len(memory.items)
}

// Sweep evicts every expired entry and returns how many were removed.
func (memory *Memory) Sweep() int {
	now := memory.now()

	memory.mu.Lock()
	removed := 0
	for key, entry := range memory.items {
		if entry.expired(now) {
			delete(memory.items, key)
			removed++
		}
	}
	size := len(memory.items)
	memory.mu.Unlock()

	if removed > 0 {
		memory.metrics.evictions.Add(float64(removed))
		memory.metrics.size.Set(float64(size))
	}

	return removed
}

// Close stops the sweeper and waits for it to exit.
func (memory *Memory) Close() error {
	memory.closeOnce.Do(func() {
		close(memory.shutdown)
	})

	select {
	case <-memory.done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("cache: timeout waiting for sweeper to stop")
	}
}

// sweepLoop periodically purges expired entries until shutdown.
func (memory *Memory) sweepLoop(context context.Context, interval time.Duration) {
	defer close(memory.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-context.Done():
			return
		case <-memory.shutdown:
			return
		case <-ticker.C:
			if removed := memory.Sweep(); removed > 0 {
				memory.logger.Debug("cache_sweep_completed", slog.Int("evicted", removed))
			}
		}
	}
}
