// Package metrics provides the central Prometheus registry reference for
// the dashboard SDK. All metrics are defined in their respective packages
// (cache, client, channel, events) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the SDK.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - dashboard_cache_hits_total (Counter): Cache hits
//   - dashboard_cache_misses_total (Counter): Cache misses, including expired reads
//   - dashboard_cache_entries (Gauge): Current entry count
//   - dashboard_cache_evictions_total (Counter): Entries removed by eviction
//   - dashboard_cache_invalidations_total (Counter): Entries removed by invalidation
//
// Request Metrics (pkg/client):
//   - dashboard_requests_total{endpoint, outcome} (Counter): Requests by endpoint and outcome
//     (cache_hit, cache_miss, passthrough, network_error, or HTTP status)
//   - dashboard_request_duration_seconds{endpoint} (Histogram): Request duration
//   - dashboard_transport_errors_total{class} (Counter): Transport errors by class
//
// Channel Metrics (pkg/channel):
//   - dashboard_channel_state_transitions_total{state} (Counter): State transitions
//   - dashboard_channel_reconnect_attempts_total (Counter): Reconnect attempts
//   - dashboard_channel_messages_total{event} (Counter): Inbound messages by event
//   - dashboard_channel_connected (Gauge): 1 while connected
//
// Event Metrics (pkg/events):
//   - dashboard_events_dispatched_total{event} (Counter): Messages fanned out
//   - dashboard_event_subscribers{event} (Gauge): Current subscriber counts
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(dashboard_cache_hits_total[5m])) /
//   (sum(rate(dashboard_cache_hits_total[5m])) + sum(rate(dashboard_cache_misses_total[5m])))
//
//   # Reconnect Churn
//   rate(dashboard_channel_reconnect_attempts_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(dashboard_request_duration_seconds_bucket[5m]))
