// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache provides the short-lived read cache used by the public API.

Entries are opaque byte payloads keyed by strings filed under a namespace
(see [constants.CacheNamespaceImages] and friends). Freshness is kept by two
mechanisms only:

  - TTL: every entry carries an absolute expiry computed at write time and is
    never served once it has lapsed.
  - Pattern invalidation: after a mutation the writer evicts every key matching
    a pattern, regardless of remaining TTL.

There is no dependency tracking between keys and the entities they were derived
from; writers are responsible for invalidating the right namespaces.

# Failure Semantics

Cache operations never return errors. A malfunctioning backend degrades to
"always miss", never to serving wrong data.

# Backends

  - [Memory]: in-process map with a background sweeper.
  - [Redis]: shared cache for multi-replica deployments.
*/
package cache

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// DefaultTTL asks the backend to apply its configured default TTL.
//
// Any negative TTL behaves the same way. A TTL of zero stores an entry that is
// already expired and therefore never served.
const DefaultTTL time.Duration = -1

// Cache is the contract shared by every cache backend.
type Cache interface {
	// Get returns the value stored under key if present and not expired.
	// An expired entry is evicted as a side effect.
	Get(context context.Context, key string) ([]byte, bool)

	// Set stores value under key with an absolute expiry of now+ttl.
	Set(context context.Context, key string, value []byte, ttl time.Duration)

	// Invalidate removes every entry whose key matches pattern and returns
	// the number of entries removed.
	Invalidate(context context.Context, pattern string) int

	// Generation returns a counter that changes on every invalidation.
	Generation(context context.Context) uint64

	// SetIfGeneration behaves like Set but only stores the value when no
	// invalidation happened since generation was observed.
	SetIfGeneration(context context.Context, key string, value []byte, ttl time.Duration, generation uint64) bool
}

// # Patterns

// Prefix returns the invalidation pattern matching every key in namespace.
func Prefix(namespace string) string {
	return "^" + regexp.QuoteMeta(namespace)
}

// Key joins a namespace and key parts with ':' separators.
//
// Example:
//
//	cache.Key(constants.CacheNamespaceSeries, "slug", "iceland") // "series:slug:iceland"
func Key(namespace string, parts ...string) string {
	return namespace + strings.Join(parts, ":")
}

// matcher compiles pattern as a regular expression. Patterns that fail to
// compile fall back to plain substring matching.
func matcher(pattern string) func(string) bool {
	expression, err := regexp.Compile(pattern)
	if err != nil {
		return func(key string) bool {
			return strings.Contains(key, pattern)
		}
	}
	return expression.MatchString
}

// # Read-Through

/*
Fetch returns the cached value for key, loading and storing it on a miss.

Description: Values are stored JSON-encoded so callers never share mutable
state with the cache. The generation is captured before load runs; if an
invalidation lands while load is in flight the result is returned to the
caller but not cached, so a read racing a write cannot pin stale data.

Parameters:
  - context: context.Context
  - cache: Cache
  - key: string (Namespaced cache key)
  - ttl: time.Duration (DefaultTTL for the backend default)
  - load: func (Source of truth lookup)

Returns:
  - T: Cached or freshly loaded value
  - error: Errors from load only
*/
func Fetch[T any](context context.Context, cache Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if raw, ok := cache.Get(context, key); ok {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			return value, nil
		}
	}

	generation := cache.Generation(context)

	value, err := load(context)
	if err != nil {
		return value, err
	}

	if raw, err := json.Marshal(value); err == nil {
		cache.SetIfGeneration(context, key, raw, ttl, generation)
	}

	return value, nil
}

// # Disabled Cache

// Nop is a [Cache] that stores nothing. Every Get is a miss.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (Nop) Set(context.Context, string, []byte, time.Duration) {}
func (Nop) Invalidate(context.Context, string) int             { return 0 }
func (Nop) Generation(context.Context) uint64                  { return 0 }
func (Nop) SetIfGeneration(context.Context, string, []byte, time.Duration, uint64) bool {
	return false
}
