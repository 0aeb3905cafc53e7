// Package search provides a TTL cache for search results keyed by the
// normalized query text.
package search

import (
	"strings"
	"sync"
	"time"

	"github.com/audiograb/audiograb/internal/model"
)

type cacheEntry struct {
	results  []model.SearchResult
	storedAt time.Time
}

// Cache holds search results for a fixed TTL. Expired entries are evicted
// lazily on lookup; there is no background sweeper and no size bound.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry

	now func() time.Time
}

// NewCache returns a cache with the given entry lifetime.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Normalize canonicalizes a query for use as a cache key.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Lookup returns the cached results for query, if present and fresh. A stale
// entry is deleted on the spot.
func (c *Cache) Lookup(query string) ([]model.SearchResult, bool) {
	key := Normalize(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.results, true
}

// Store caches results for query.
func (c *Cache) Store(query string, results []model.SearchResult) {
	key := Normalize(query)

	c.mu.Lock()
	c.entries[key] = cacheEntry{results: results, storedAt: c.now()}
	c.mu.Unlock()
}
