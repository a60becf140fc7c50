package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/clientpulse/clientpulse/app/collector"
)

// Entry is a cached result set for one (query, source) pair. At most one
// live entry exists per key; a Put for an existing key refreshes it.
type Entry struct {
	Key       string
	Query     string
	Source    string
	Results   []collector.RawResult
	CachedAt  time.Time
	ExpiresAt time.Time
}

// SearchCache is an in-process TTL cache for collector result sets, shared
// by all concurrently running jobs. Expiry is lazy: a read of an expired
// entry reports a miss without removing it, and CleanupExpired sweeps
// expired entries on demand.
type SearchCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

func NewSearchCache() *SearchCache {
	return NewSearchCacheWithClock(time.Now)
}

// NewSearchCacheWithClock injects the time source so tests can advance time
// deterministically.
func NewSearchCacheWithClock(now func() time.Time) *SearchCache {
	return &SearchCache{
		entries: make(map[string]Entry),
		now:     now,
	}
}

// Key derives the stable cache key for a (query, source) pair.
func Key(query, source string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	hash := sha256.Sum256([]byte(normalized + "|" + strings.ToLower(source)))
	return fmt.Sprintf("search:%x", hash[:16])
}

// Get returns the cached results for the pair and whether the lookup was a
// hit. A present-but-expired entry is a logical miss.
func (c *SearchCache) Get(query, source string) ([]collector.RawResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[Key(query, source)]
	if !ok {
		return nil, false
	}

	if c.now().After(entry.ExpiresAt) {
		return nil, false
	}

	return entry.Results, true
}

// Put stores the results for the pair, overwriting any existing entry.
// Concurrent writers race safely; the last writer wins.
func (c *SearchCache) Put(query, source string, results []collector.RawResult, ttl time.Duration) {
	now := c.now()
	key := Key(query, source)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		Key:       key,
		Query:     query,
		Source:    source,
		Results:   results,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// CleanupExpired physically removes every expired entry and returns the
// number removed. Calling it twice with no intervening writes removes
// nothing the second time.
func (c *SearchCache) CleanupExpired() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// Len reports the number of entries currently held, expired or not.
func (c *SearchCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
