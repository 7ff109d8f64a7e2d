package resolver

import (
	"sync"
	"sync/atomic"
)

// CacheKey is the memo key for a request made from base.
func CacheKey(request, base string) string {
	return request + "::" + base
}

type cached struct {
	generation uint64
	result     Result
}

// Cache memoises results per registry generation. An entry written under an
// older generation is a miss.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cached

	hits   atomic.Uint64
	misses atomic.Uint64
	stale  atomic.Uint64
}

// CacheStats counts lookups since the cache was created.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
	Stale   uint64 // misses caused by an older generation
}

// NewCache creates a Cache with the given capacity hint.
func NewCache(capHint int) *Cache {
	return &Cache{entries: make(map[string]cached, capHint)}
}

// Get returns the result stored for key under generation.
func (c *Cache) Get(key string, generation uint64) (Result, bool) {
	c.mu.RLock()
	rec, ok := c.entries[key]
	c.mu.RUnlock()
	switch {
	case !ok:
		c.misses.Add(1)
		return Result{}, false
	case rec.generation != generation:
		c.misses.Add(1)
		c.stale.Add(1)
		return Result{}, false
	}
	c.hits.Add(1)
	return rec.result, true
}

// Put stores res for key under generation.
func (c *Cache) Put(key string, generation uint64, res Result) {
	c.mu.Lock()
	c.entries[key] = cached{generation: generation, result: res}
	c.mu.Unlock()
}

// Prune drops entries not written under generation and reports how many.
func (c *Cache) Prune(generation uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, rec := range c.entries {
		if rec.generation != generation {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Stats returns lookup counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Entries: n,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Stale:   c.stale.Load(),
	}
}
