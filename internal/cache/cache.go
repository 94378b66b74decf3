// Package cache provides the page fragment cache. Entries live until their TTL
// runs out or the cache is cleared; writes to the underlying data never
// invalidate them.
package cache

import (
	"context"
	"sync"
	"time"

	"Yatube/internal/metrics"
)

// PageCache stores rendered page fragments by key.
type PageCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is a process-local PageCache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	m.entries[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

// RunCleanup sweeps expired entries every interval until ctx is done. Keys
// that are never read again would otherwise stay in memory.
func (m *Memory) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

// cleanup removes all expired entries and reports how many went.
func (m *Memory) cleanup() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len reports stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Fragment returns the cached value for key, calling render and storing the
// result on a miss. Cache backend failures fall through to render so a broken
// cache never takes the page down.
func Fragment(ctx context.Context, c PageCache, name, key string, ttl time.Duration, render func() (string, error)) (string, error) {
	if c != nil && ttl > 0 {
		if v, ok, err := c.Get(ctx, key); err == nil && ok {
			metrics.RecordCacheLookup(name, true)
			return v, nil
		}
		metrics.RecordCacheLookup(name, false)
	}

	v, err := render()
	if err != nil {
		return "", err
	}
	if c != nil && ttl > 0 {
		_ = c.Set(ctx, key, v, ttl)
	}
	return v, nil
}
