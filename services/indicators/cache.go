package indicators

import "sync"

// CacheKey identifies one computed indicator over one exact candle series.
// The spec hash is structural (see Spec.Hash), not a serialized blob; the
// bar count and first/last open times pin the series itself, so runs over
// different slices of the same symbol never share an entry.
type CacheKey struct {
	Symbol    string
	Timeframe string
	SpecHash  string
	Bars      int
	FirstTime int64
	LastTime  int64
}

// Cache is a read-mostly store of computed indicator series shared across
// concurrent runs. Population is idempotent: two runs racing on the same key
// compute the same value, so last-write-wins is safe.
type Cache struct {
	mu sync.RWMutex
	m  map[CacheKey]Computed
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{m: make(map[CacheKey]Computed)}
}

// Get returns the cached result for the key.
func (c *Cache) Get(key CacheKey) (Computed, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

// Put stores a computed result.
func (c *Cache) Put(key CacheKey, value Computed) {
	c.mu.Lock()
	c.m[key] = value
	c.mu.Unlock()
}

// GetOrCompute returns the cached result or computes, stores and returns it.
func (c *Cache) GetOrCompute(key CacheKey, compute func() Computed) Computed {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.Put(key, v)
	return v
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
