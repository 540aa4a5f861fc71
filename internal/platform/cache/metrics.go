// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// cacheMetrics holds Prometheus metrics for cache operations.
type cacheMetrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	sets          prometheus.Counter
	evictions     prometheus.Counter
	invalidations prometheus.Counter
	size          prometheus.Gauge
}

// newCacheMetrics creates the cache metrics and registers them when registry is set.
// A nil registry still yields usable, unregistered collectors.
func newCacheMetrics(registry prometheus.Registerer, backend string) (*cacheMetrics, error) {
	labels := prometheus.Labels{"backend": backend}

	metrics := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "folio", Subsystem: "cache", Name: "hits_total",
			ConstLabels: labels, Help: "Total number of cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "folio", Subsystem: "cache", Name: "misses_total",
			ConstLabels: labels, Help: "Total number of cache misses, expired entries included",
		}),
		sets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "folio", Subsystem: "cache", Name: "sets_total",
			ConstLabels: labels, Help: "Total number of stored entries",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "folio", Subsystem: "cache", Name: "evictions_total",
			ConstLabels: labels, Help: "Total number of entries evicted on expiry",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "folio", Subsystem: "cache", Name: "invalidated_total",
			ConstLabels: labels, Help: "Total number of entries removed by pattern invalidation",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "folio", Subsystem: "cache", Name: "size",
			ConstLabels: labels, Help: "Current number of entries held in memory",
		}),
	}

	if registry == nil {
		return metrics, nil
	}

	for _, collector := range []prometheus.Collector{
		metrics.hits, metrics.misses, metrics.sets, metrics.evictions, metrics.invalidations, metrics.size,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("cache: register metrics: %w", err)
		}
	}

	return metrics, nil
}
