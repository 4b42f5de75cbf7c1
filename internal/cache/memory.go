package cache

import (
	"context"
	"sync"
	"time"
)

const DefaultMaxEntries = 1000

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a process-local cache with lazy expiry. When MaxEntries is
// reached, expired entries are swept and then the entry closest to expiry
// is evicted.
type Memory struct {
	mu         sync.RWMutex
	items      map[string]entry
	maxEntries int
	now        func() time.Time
	metrics    Recorder
}

type MemoryOption func(*Memory)

func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func WithMetrics(r Recorder) MemoryOption {
	return func(m *Memory) { m.metrics = r }
}

// NewMemory returns an empty cache. maxEntries <= 0 uses DefaultMaxEntries.
func NewMemory(maxEntries int, opts ...MemoryOption) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	m := &Memory{
		items:      map[string]entry{},
		maxEntries: maxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	hit := ok && m.now().Before(e.expiresAt)
	if m.metrics != nil {
		m.metrics.CacheResult("memory", hit)
	}
	if !hit {
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxEntries {
		m.evictLocked(now)
	}
	m.items[key] = entry{value: value, expiresAt: now.Add(ttl)}
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) evictLocked(now time.Time) {
	for k, e := range m.items {
		if !now.Before(e.expiresAt) {
			delete(m.items, k)
		}
	}
	if len(m.items) < m.maxEntries {
		return
	}

	var (
		oldest    string
		oldestAt  time.Time
		haveFirst bool
	)
	for k, e := range m.items {
		if !haveFirst || e.expiresAt.Before(oldestAt) {
			oldest, oldestAt, haveFirst = k, e.expiresAt, true
		}
	}
	if haveFirst {
		delete(m.items, oldest)
	}
}
