package tenant

import (
	"sync"
	"time"

	"github.com/fluxio-platform/fluxio/pkg/utils"
)

// DefaultCacheTTL is how long a custom-domain resolution stays valid.
const DefaultCacheTTL = 5 * time.Minute

// cacheEntry holds one resolved domain -> slug mapping.
type cacheEntry struct {
	slug       string
	insertedAt time.Time
}

// CacheEntryStat is a read-only diagnostic view of one cache entry.
type CacheEntryStat struct {
	Domain string        `json:"domain"`
	Slug   string        `json:"slug"`
	Age    time.Duration `json:"age"`
}

// CacheStats reports the cache's current contents.
type CacheStats struct {
	Size    int              `json:"size"`
	Entries []CacheEntryStat `json:"entries"`
}

// DomainCache maps externally observed hostnames to tenant slugs so the
// resolver can skip a database lookup on every request. Keys are normalized
// (lowercase, port and leading "www." stripped) before any operation, so all
// spellings of one domain collide on one entry. Entries expire lazily on
// read after the configured TTL. Safe for concurrent use; the cache is the
// only state shared across requests.
type DomainCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewDomainCache creates an empty cache. A non-positive ttl falls back to
// DefaultCacheTTL.
func NewDomainCache(ttl time.Duration) *DomainCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &DomainCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached slug for a domain. The second return is false when
// the domain is absent or its entry has outlived the TTL; expired entries
// are evicted on the spot.
func (c *DomainCache) Get(domain string) (string, bool) {
	key := utils.NormalizeHost(domain)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	if c.now().Sub(entry.insertedAt) > c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a Set may have refreshed it.
		if current, still := c.entries[key]; still && c.now().Sub(current.insertedAt) > c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}

	return entry.slug, true
}

// Set stores or unconditionally refreshes the entry for a domain.
func (c *DomainCache) Set(domain, slug string) {
	key := utils.NormalizeHost(domain)

	c.mu.Lock()
	c.entries[key] = cacheEntry{slug: slug, insertedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes the entry for a domain. Removing an absent key is a
// no-op.
func (c *DomainCache) Invalidate(domain string) {
	key := utils.NormalizeHost(domain)

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *DomainCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Stats returns the current size and per-entry ages for diagnostics. It
// never evicts; reporting must not affect expiry behavior.
func (c *DomainCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		Size:    len(c.entries),
		Entries: make([]CacheEntryStat, 0, len(c.entries)),
	}
	now := c.now()
	for domain, entry := range c.entries {
		stats.Entries = append(stats.Entries, CacheEntryStat{
			Domain: domain,
			Slug:   entry.slug,
			Age:    now.Sub(entry.insertedAt),
		})
	}
	return stats
}
