package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Redis TTL sentinels.
const (
	ttlNoExpiry = -1 * time.Second
	ttlMissing  = -2 * time.Second
)

type memoryEntry struct {
	count     int64
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process Store with Redis-like expiry semantics.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	clock   func() time.Time
}

// NewMemoryStore returns an empty store. A nil clock uses time.Now.
func NewMemoryStore(clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}

	return &MemoryStore{entries: make(map[string]*memoryEntry), clock: clock}
}

// live returns the entry for key, dropping it first if it has expired.
func (m *MemoryStore) live(key string) (*memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !m.clock().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}

	return e, true
}

func (m *MemoryStore) Get(_ context.Context, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return 0, false, nil
	}

	return e.count, true, nil
}

func (m *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		e = &memoryEntry{}
		m.entries[key] = e
	}
	e.count++

	return e.count, nil
}

func (m *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.live(key); ok {
		e.expiresAt = m.clock().Add(ttl)
	}

	return nil
}

func (m *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	switch {
	case !ok:
		return ttlMissing, nil
	case e.expiresAt.IsZero():
		return ttlNoExpiry, nil
	default:
		return e.expiresAt.Sub(m.clock()), nil
	}
}
