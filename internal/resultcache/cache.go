// Package resultcache holds the last computed analysis per session. Entries
// are short-lived: each calculation overwrites its session's entry, failures
// delete it, and a TTL plus a capacity bound keep abandoned sessions from
// accumulating.
package resultcache

import (
	"sync"
	"time"
)

// Defaults for the in-memory store.
const (
	DefaultTTL      = 30 * time.Minute
	DefaultCapacity = 1024
)

// Store is a session-keyed result cache. It is injected into the
// calculation entry point rather than held as ambient state.
type Store[V any] interface {
	Get(sessionID string) (V, bool)
	Put(sessionID string, value V)
	Delete(sessionID string)
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Memory is an in-memory Store with TTL expiry and oldest-first eviction
// once the capacity bound is exceeded.
type Memory[V any] struct {
	mu       sync.Mutex
	entries  map[string]*entry[V]
	ttl      time.Duration
	capacity int
	now      func() time.Time // injectable clock for tests
}

// MemoryOption configures a Memory store.
type MemoryOption[V any] func(*Memory[V])

// WithTTL sets how long an entry stays valid.
func WithTTL[V any](ttl time.Duration) MemoryOption[V] {
	return func(m *Memory[V]) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithCapacity sets the maximum number of retained entries.
func WithCapacity[V any](n int) MemoryOption[V] {
	return func(m *Memory[V]) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// NewMemory creates an in-memory result cache.
func NewMemory[V any](opts ...MemoryOption[V]) *Memory[V] {
	m := &Memory[V]{
		entries:  make(map[string]*entry[V]),
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached value for the session, treating expired entries as
// absent and removing them lazily.
func (m *Memory[V]) Get(sessionID string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	e, ok := m.entries[sessionID]
	if !ok {
		return zero, false
	}
	if m.now().Sub(e.storedAt) > m.ttl {
		delete(m.entries, sessionID)
		return zero, false
	}
	return e.value, true
}

// Put stores the value for the session, overwriting any previous entry and
// evicting the oldest entries while over capacity.
func (m *Memory[V]) Put(sessionID string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[sessionID] = &entry[V]{value: value, storedAt: m.now()}

	for len(m.entries) > m.capacity {
		oldestID := ""
		var oldestAt time.Time
		for id, e := range m.entries {
			if oldestID == "" || e.storedAt.Before(oldestAt) {
				oldestID = id
				oldestAt = e.storedAt
			}
		}
		delete(m.entries, oldestID)
	}
}

// Delete removes the session's entry.
func (m *Memory[V]) Delete(sessionID string) {
	m.mu.Lock()
	delete(m.entries, sessionID)
	m.mu.Unlock()
}
