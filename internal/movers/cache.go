package movers

import (
	"sync"
	"time"

	"market-movers-api/internal/models"
)

// ResultCache holds the last computed AggregateResult with a TTL. The entry
// is replaced as a whole on Put, so readers always observe a result computed
// by a single pipeline pass. The cache performs no fetching itself.
type ResultCache struct {
	mu         sync.RWMutex
	result     *models.AggregateResult
	computedAt time.Time
	ttl        time.Duration
}

// NewResultCache creates an empty cache with the given TTL.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{ttl: ttl}
}

// Get returns the cached result when it is younger than the TTL at now. The
// second return value is false on a miss (empty or stale entry).
func (c *ResultCache) Get(now time.Time) (*models.AggregateResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.result == nil || now.Sub(c.computedAt) >= c.ttl {
		return nil, false
	}
	return c.result, true
}

// Peek returns the cached result regardless of freshness, for status
// reporting.
func (c *ResultCache) Peek() (*models.AggregateResult, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result, c.computedAt
}

// Put atomically replaces the entry.
func (c *ResultCache) Put(result *models.AggregateResult, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
	c.computedAt = now
}

// Clear resets the cache to empty.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = nil
	c.computedAt = time.Time{}
}

// SetTTL changes the freshness window. It takes effect on the next Get; an
// entry already judged fresh under the old TTL is not retroactively
// invalidated mid-check.
func (c *ResultCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// TTL returns the current freshness window.
func (c *ResultCache) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}
