// Package cache provides an in-process key/value store with per-entry TTL.
//
// Values are stored by reference, without defensive copies. Callers must not
// mutate a value after handing it to Set; this is a deliberate tradeoff that
// keeps cached HTTP bodies cheap to serve.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL applies when Set is called with a non-positive ttl.
const DefaultTTL = 300 * time.Second

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Stats is a snapshot of store activity.
type Stats struct {
	Hits   uint64
	Misses uint64
	Keys   int
}

// Store is a TTL cache safe for concurrent use. Construct one per process
// (or per test) with New and pass it where it is needed; there is no
// package-level instance.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	hits       uint64
	misses     uint64
}

// New returns an empty store. A non-positive defaultTTL falls back to
// DefaultTTL.
func New(defaultTTL time.Duration) *Store {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Store{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
	}
}

// Get returns the value stored under key. An expired entry behaves exactly
// like a missing one, even before the sweep removes it.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.expired(time.Now()) {
		s.misses++
		return nil, false
	}
	s.hits++
	return e.value, true
}

// Set stores value under key. A non-positive ttl uses the store default.
// Always reports true.
func (s *Store) Set(key string, value any, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	return true
}

// Has reports whether key holds a live entry. Does not count as a hit or miss.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return ok && !e.expired(time.Now())
}

// Delete removes key and returns the number of entries removed (0 or 1).
func (s *Store) Delete(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return 0
	}
	delete(s.entries, key)
	return 1
}

// DeleteMany removes every given key and returns how many existed.
func (s *Store) DeleteMany(keys []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, key := range keys {
		if _, ok := s.entries[key]; ok {
			delete(s.entries, key)
			n++
		}
	}
	return n
}

// Keys returns all keys currently present, expired entries included until
// the next sweep.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Flush drops every entry. Hit/miss counters are kept.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
}

// Stats returns a snapshot of the store counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Hits: s.hits, Misses: s.misses, Keys: len(s.entries)}
}

// TTL returns the remaining lifetime of key, or false if the key is absent
// or already expired.
func (s *Store) TTL(key string) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return 0, false
	}
	remaining := time.Until(e.expiresAt)
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

// DeleteExpired removes every expired entry and returns how many were
// dropped. Intended to run on a fixed schedule, independent of reads.
func (s *Store) DeleteExpired() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}
