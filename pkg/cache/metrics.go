package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks cache hits.
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_hits_total",
			Help: "Total number of dashboard cache hits",
		},
	)

	// cacheMisses tracks cache misses, including expired-entry reads.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_misses_total",
			Help: "Total number of dashboard cache misses",
		},
	)

	// cacheEntries tracks the current number of cached entries.
	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_cache_entries",
			Help: "Current number of entries in the dashboard cache",
		},
	)

	// cacheEvictions tracks entries removed by the eviction algorithm.
	cacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_evictions_total",
			Help: "Total number of entries evicted from the dashboard cache",
		},
	)

	// cacheInvalidations tracks entries removed by explicit invalidation.
	cacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_invalidations_total",
			Help: "Total number of entries removed by explicit invalidation",
		},
	)
)
