package keyed

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultShards is used when New is given a non-positive shard count.
const DefaultShards = 64

// Entry is a stored value with an expiry; a zero ExpiresAt never expires.
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry[V]) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

type shard[V any] struct {
	mu      sync.Mutex
	entries map[string]Entry[V]
}

// Map is a sharded string-keyed map safe for concurrent use.
type Map[V any] struct {
	shards []*shard[V]
	mask   uint64
}

// New creates a Map with n shards rounded up to a power of two.
func New[V any](n int) *Map[V] {
	if n <= 0 {
		n = DefaultShards
	}
	size := 1
	for size < n {
		size <<= 1
	}
	m := &Map[V]{
		shards: make([]*shard[V], size),
		mask:   uint64(size - 1),
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{entries: make(map[string]Entry[V])}
	}
	return m
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	return m.shards[xxhash.Sum64String(key)&m.mask]
}

// Update runs fn with the current entry for key (ok=false when absent) while
// holding the key's shard lock. fn returns the entry to store and whether to
// keep it; returning keep=false deletes the key. fn must not block.
func (m *Map[V]) Update(key string, fn func(cur Entry[V], ok bool) (next Entry[V], keep bool)) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[key]
	next, keep := fn(cur, ok)
	if !keep {
		delete(s.entries, key)
		return
	}
	s.entries[key] = next
}

// Get returns the entry for key if present and not expired at now.
func (m *Map[V]) Get(key string, now time.Time) (Entry[V], bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.Expired(now) {
		return Entry[V]{}, false
	}
	return e, true
}

// Set stores value under key until expiresAt.
func (m *Map[V]) Set(key string, value V, expiresAt time.Time) {
	m.Update(key, func(Entry[V], bool) (Entry[V], bool) {
		return Entry[V]{Value: value, ExpiresAt: expiresAt}, true
	})
}

// Delete removes key and reports whether it was present.
func (m *Map[V]) Delete(key string) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok
}

// Len returns the number of stored entries, expired ones included.
func (m *Map[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// DeleteFunc deletes every entry for which fn returns true and returns how
// many were removed. fn runs under the shard lock and must not block.
func (m *Map[V]) DeleteFunc(fn func(key string, e Entry[V]) bool) int {
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for k, e := range s.entries {
			if fn(k, e) {
				delete(s.entries, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Sweep deletes entries expired at now and returns how many were removed.
// Shards are locked one at a time.
func (m *Map[V]) Sweep(now time.Time) int {
	return m.DeleteFunc(func(_ string, e Entry[V]) bool {
		return e.Expired(now)
	})
}
