package fx

import (
	"sync"
	"time"
)

// cacheEntry is one cached rate with its fetch timestamp. Entries are never
// evicted: an expired current-date entry remains available as the stale
// fallback of last resort.
type cacheEntry struct {
	Rate      float64
	Date      time.Time
	FetchedAt time.Time
}

// rateCache is a concurrent cache of resolved exchange rates keyed by
// (from, to, date). Reads take a shared lock so lookups for unrelated pairs
// never block each other; the resolver's singleflight group ensures at most
// one in-flight fetch per key.
type rateCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	// latest tracks the most recently fetched entry per directional pair,
	// regardless of date or expiry, for stale fallback.
	latest map[string]cacheEntry
}

func newRateCache() *rateCache {
	return &rateCache{
		entries: make(map[string]cacheEntry),
		latest:  make(map[string]cacheEntry),
	}
}

func cacheKey(from, to string, date time.Time) string {
	return from + "/" + to + "/" + date.Format("2006-01-02")
}

func pairKey(from, to string) string {
	return from + "/" + to
}

// Get returns the entry for an exact (from, to, date) key.
func (c *rateCache) Get(from, to string, date time.Time) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[cacheKey(from, to, date)]
	return entry, ok
}

// Set stores an entry and updates the pair's latest-fetched record.
func (c *rateCache) Set(from, to string, date time.Time, rate float64, fetchedAt time.Time) {
	entry := cacheEntry{Rate: rate, Date: date, FetchedAt: fetchedAt}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(from, to, date)] = entry

	pair := pairKey(from, to)
	if existing, ok := c.latest[pair]; !ok || fetchedAt.After(existing.FetchedAt) {
		c.latest[pair] = entry
	}
}

// Latest returns the most recently fetched entry for a directional pair,
// ignoring TTL. Used only for the stale fallback path.
func (c *rateCache) Latest(from, to string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.latest[pairKey(from, to)]
	return entry, ok
}
