package edge

import (
	"sync"
	"time"
)

// cacheEntry holds one cached object body with the response metadata the
// edge echoes back on a hit.
type cacheEntry struct {
	body        []byte
	contentType string
	etag        string
	storedAt    time.Time
}

// Cache is an in-process read cache for edge responses. Entries expire
// after the configured TTL; there is no active eviction, stale entries
// are dropped on the next lookup.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache whose entries stay fresh for ttl. A zero ttl
// disables caching entirely.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached entry for key when present and fresh.
func (c *Cache) Get(key string) (cacheEntry, bool) {
	if c == nil || c.ttl <= 0 {
		return cacheEntry{}, false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return cacheEntry{}, false
	}

	if c.now().Sub(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return cacheEntry{}, false
	}

	return entry, true
}

// Put stores a response body for key.
func (c *Cache) Put(key string, body []byte, contentType, etag string) {
	if c == nil || c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		body:        body,
		contentType: contentType,
		etag:        etag,
		storedAt:    c.now(),
	}
	c.mu.Unlock()
}

// Invalidate drops the entry for key, if any.
func (c *Cache) Invalidate(key string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of entries currently held, fresh or not.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
