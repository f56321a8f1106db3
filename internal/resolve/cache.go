package resolve

import "sync"

// Cache memoizes resolved values by query. It has no eviction policy
// and no capacity bound: entries live until the owning service is
// recreated. Each service owns its own instance; there is no package
// singleton, so tests get isolated caches for free.
//
// All mutations are atomic with respect to concurrent readers, which
// upholds the resolve-once, return-verbatim-thereafter invariant.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Value
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Value)}
}

// Get returns the cached value for query, if any.
func (c *Cache) Get(query string) (Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[query]
	return v, ok
}

// Put stores a value for query, overwriting any previous entry.
// Unresolved sentinels are refused; caching them would break the
// retry-after-exhaustion contract.
func (c *Cache) Put(query string, v Value) {
	if !v.IsResolved() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[query] = v
}

// Contains reports whether query has a cached value.
func (c *Cache) Contains(query string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[query]
	return ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns a snapshot of all cached queries.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
