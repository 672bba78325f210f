package cache

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// ErrCacheMiss indicates the requested fingerprint was not found in cache
// or its entry has expired.
var ErrCacheMiss = errors.New("cache miss")

// Default store limits, used when the corresponding Config field is zero.
const (
	DefaultTTL        = 60 * time.Second
	DefaultMaxEntries = 256
)

// Config holds store configuration.
type Config struct {
	// TTL is how long an entry stays valid after insertion.
	TTL time.Duration

	// MaxEntries is the hard cap on concurrently cached entries.
	MaxEntries int

	// Clock is the time source. Defaults to the real clock; tests inject
	// a mock to drive expiry deterministically.
	Clock quartz.Clock
}

// Store is a bounded in-memory fingerprint -> Entry mapping.
//
// Size never exceeds MaxEntries: when an insert pushes the map over the
// cap, eviction removes expired entries first, then the oldest-inserted
// entries, until at most MaxEntries/2 remain. Eviction is amortized over
// inserts; there is no background sweep.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry

	ttl        time.Duration
	maxEntries int
	clock      quartz.Clock
}

// NewStore creates a store from cfg, applying defaults for zero fields.
func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	return &Store{
		entries:    make(map[string]Entry),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		clock:      cfg.Clock,
	}
}

// Get returns the payload cached under fingerprint, or ErrCacheMiss if no
// entry exists or the entry has expired. Expired entries are left in place
// for the next eviction pass; Get is a pure read on the hot path.
func (s *Store) Get(fingerprint string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[fingerprint]
	if !ok {
		cacheMisses.Inc()
		return nil, ErrCacheMiss
	}
	if entry.IsExpired(s.ttl, s.clock.Now()) {
		cacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	cacheHits.Inc()
	return entry.Payload, nil
}

// Put inserts or overwrites the entry for fingerprint. If the resulting
// size exceeds MaxEntries, the eviction algorithm runs before Put returns.
func (s *Store) Put(fingerprint string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[fingerprint] = Entry{
		Payload:    payload,
		InsertedAt: s.clock.Now(),
	}

	if len(s.entries) > s.maxEntries {
		s.evictLocked()
	}

	cacheEntries.Set(float64(len(s.entries)))
}

// Invalidate removes every entry whose fingerprint satisfies the
// predicate. Used for tenant-scoped clears and full clears.
func (s *Store) Invalidate(predicate func(fingerprint string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for fingerprint := range s.entries {
		if predicate(fingerprint) {
			delete(s.entries, fingerprint)
			removed++
		}
	}

	cacheInvalidations.Add(float64(removed))
	cacheEntries.Set(float64(len(s.entries)))
}

// Len returns the current number of entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictLocked removes expired entries, then oldest-inserted entries until
// at most maxEntries/2 remain. Caller must hold s.mu.
func (s *Store) evictLocked() {
	now := s.clock.Now()
	before := len(s.entries)

	for fingerprint, entry := range s.entries {
		if entry.IsExpired(s.ttl, now) {
			delete(s.entries, fingerprint)
		}
	}

	target := s.maxEntries / 2
	if len(s.entries) > target {
		type aged struct {
			fingerprint string
			insertedAt  time.Time
		}
		byAge := make([]aged, 0, len(s.entries))
		for fingerprint, entry := range s.entries {
			byAge = append(byAge, aged{fingerprint, entry.InsertedAt})
		}
		sort.Slice(byAge, func(i, j int) bool {
			return byAge[i].insertedAt.Before(byAge[j].insertedAt)
		})

		for _, candidate := range byAge[:len(byAge)-target] {
			delete(s.entries, candidate.fingerprint)
		}
	}

	cacheEvictions.Add(float64(before - len(s.entries)))
}
