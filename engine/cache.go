package engine

import "sync"

// ProgramCache stores compiled programs keyed by their source text.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryCache is a minimal in-memory ProgramCache intended for tests and
// examples. It never evicts.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]any{}}
}

// Get returns the cached program for key.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()
	return value, ok
}

// Set stores value under key, replacing any previous entry.
func (c *MemoryCache) Set(key string, value any) {
	c.mu.Lock()
	if c.entries == nil {
		c.entries = map[string]any{}
	}
	c.entries[key] = value
	c.mu.Unlock()
}

// Len reports the number of cached programs.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
