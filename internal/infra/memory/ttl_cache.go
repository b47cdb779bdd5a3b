package memory

import (
	"context"
	"sync"
	"time"

	"quiz-master-service/internal/domain"
)

// TTLCache is the in-process implementation of cache.Store: a mutex-guarded
// map with lazy eviction. An expired entry is removed by the next access that
// observes it; there is no background sweep. Memory is bounded only by what
// callers insert minus what they read past expiry or clear.
type TTLCache struct {
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewTTLCache() *TTLCache {
	return NewTTLCacheWithClock(time.Now)
}

// NewTTLCacheWithClock allows deterministic expiry in tests.
func NewTTLCacheWithClock(clock func() time.Time) *TTLCache {
	return &TTLCache{
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: c.clock().Add(ttl),
	}
	return nil
}

func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, domain.ErrInvalidKey
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !c.clock().Before(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if current, ok := c.entries[key]; ok && !c.clock().Before(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *TTLCache) ClearKey(_ context.Context, key string) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *TTLCache) ClearAll(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return n, nil
}

// Len reports the current entry count, expired entries included; exposed for
// the admin cache-info endpoint.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
