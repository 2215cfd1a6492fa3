// Package cache provides a TTL read cache for hot endpoints (grouped
// matches, competitions, leaderboard) with in-memory and Redis backends.
package cache

import (
	"context"
	"sync"
	"time"
)

// Common TTLs.
const (
	TTLGrouped      = 60 * time.Second
	TTLCompetitions = 10 * time.Minute
	TTLLeaderboard  = 5 * time.Minute
)

// Cache is the read-cache surface used by handlers. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Stats() map[string]any
}

// New picks a backend: Redis when redisURL is set, otherwise in-memory.
// Pass enabled=false for a no-op cache.
func New(redisURL string, enabled bool) Cache {
	if !enabled {
		return &Memory{enabled: false}
	}
	if redisURL != "" {
		if r, err := NewRedis(redisURL); err == nil {
			return r
		}
		// Fall through to memory when Redis is unreachable at startup.
	}
	return NewMemory()
}

// --------------------------------------------------------------------------
// In-memory backend
// --------------------------------------------------------------------------

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is a thread-safe in-memory TTL cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory creates an enabled in-memory cache with a background evictor.
func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		enabled: true,
		stop:    make(chan struct{}),
	}
	go m.evictLoop()
	return m
}

// Close stops the background evictor. Safe to call more than once; expired
// entries still miss lazily on Get after close.
func (m *Memory) Close() {
	if m.stop == nil {
		return
	}
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	if !m.enabled {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.data, true
}

func (m *Memory) Set(_ context.Context, key string, data []byte, ttl time.Duration) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	m.entries[key] = entry{data: data, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

func (m *Memory) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	active, expired := 0, 0
	now := time.Now()
	for _, e := range m.entries {
		if now.After(e.expiresAt) {
			expired++
		} else {
			active++
		}
	}
	return map[string]any{
		"backend": "memory",
		"enabled": m.enabled,
		"active":  active,
		"expired": expired,
	}
}

func (m *Memory) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evictExpired(time.Now())
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) evictExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
