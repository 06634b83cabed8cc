package cache

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how long expired entries and rate windows linger.
const sweepEvery = time.Minute

type entry struct {
	data    []byte
	expires time.Time
}

type window struct {
	count int
	reset time.Time
}

// Memory is the in-process cache used when no Redis address is configured.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	windows map[string]*window
	limit   RateLimit
	now     func() time.Time

	lastSweep time.Time
}

func NewMemory(limit RateLimit) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		windows: make(map[string]*window),
		limit:   limit,
		now:     time.Now,
	}
}

// sweep drops expired entries and finished windows at most once per
// sweepEvery; callers hold m.mu.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepEvery {
		return
	}
	m.lastSweep = now
	for k, e := range m.entries {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	for k, w := range m.windows {
		if !now.Before(w.reset) {
			delete(m.windows, k)
		}
	}
}

func (m *Memory) IsRateLimited(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	w, ok := m.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(m.limit.Window)}
		m.windows[key] = w
	}
	w.count++
	return w.count > m.limit.Requests
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return append([]byte(nil), e.data...), nil
}

func (m *Memory) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	e := entry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Close() error { return nil }
