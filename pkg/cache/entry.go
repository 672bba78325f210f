// Package cache provides the bounded in-memory response cache used by the
// dashboard data layer, with TTL expiry and size-driven eviction.
package cache

import (
	"time"
)

// Entry represents a cached dashboard API response.
type Entry struct {
	// Payload is the response body. Opaque to the cache; never inspected.
	Payload []byte

	// InsertedAt is when the entry was stored.
	InsertedAt time.Time
}

// IsExpired returns true if the entry is older than ttl at the given instant.
func (e *Entry) IsExpired(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.InsertedAt) >= ttl
}

// Age returns how long the entry has been cached at the given instant.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.InsertedAt)
}
