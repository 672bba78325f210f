// Package cache provides the in-memory response cache for the dashboard
// data layer.
//
// The store implements session-scoped caching with the following features:
//
// - TTL expiry (entries are valid for a fixed freshness window)
// - Hard capacity bound with amortized eviction on insert
// - Tenant-partitioned fingerprints (no cross-site cache hits)
// - Predicate-based bulk invalidation
// - Prometheus metrics for observability
// - Deterministic fingerprint generation
//
// # Basic Usage
//
//	// Create a store
//	store := cache.NewStore(cache.Config{
//		TTL:        30 * time.Second,
//		MaxEntries: 500,
//	})
//
//	// Build a fingerprint
//	fp := cache.Fingerprint{
//		Method:   "GET",
//		Endpoint: "/api/venues/occupancy",
//		TenantID: "siteA",
//		Params:   map[string]string{"range": "1h"},
//	}
//
//	// Get from cache
//	payload, err := store.Get(fp.String())
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch from the API
//	}
//
//	// Store a response
//	store.Put(fp.String(), payload)
//
// # Eviction
//
// Size never exceeds MaxEntries. When an insert pushes the store over the
// cap, expired entries are removed first; if the store is still over half
// capacity, oldest-inserted entries are removed until at most MaxEntries/2
// remain. Eviction only runs on insert; there is no background timer.
//
// # Tenant Invalidation
//
//	// Remove everything cached for a site after a tenant switch
//	store.Invalidate(cache.TenantPredicate("siteA"))
//
// # Metrics
//
// The store exports Prometheus metrics:
//
//   - dashboard_cache_hits_total - Cache hits
//   - dashboard_cache_misses_total - Cache misses (including expired reads)
//   - dashboard_cache_entries - Current entry count
//   - dashboard_cache_evictions_total - Entries removed by eviction
//   - dashboard_cache_invalidations_total - Entries removed by invalidation
package cache
