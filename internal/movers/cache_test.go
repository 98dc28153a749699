package movers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-movers-api/internal/models"
)

// Test ResultCache
func TestResultCache(t *testing.T) {
	now := time.Now()

	t.Run("empty cache misses", func(t *testing.T) {
		cache := NewResultCache(60 * time.Second)

		result, ok := cache.Get(now)
		assert.False(t, ok)
		assert.Nil(t, result)
	})

	t.Run("fresh entry hits", func(t *testing.T) {
		cache := NewResultCache(60 * time.Second)
		stored := &models.AggregateResult{ComputedAt: now}

		cache.Put(stored, now)

		result, ok := cache.Get(now.Add(30 * time.Second))
		require.True(t, ok)
		assert.Same(t, stored, result)
	})

	t.Run("entry at exactly TTL is stale", func(t *testing.T) {
		cache := NewResultCache(60 * time.Second)
		cache.Put(&models.AggregateResult{}, now)

		_, ok := cache.Get(now.Add(60 * time.Second))
		assert.False(t, ok)
	})

	t.Run("put replaces the whole entry", func(t *testing.T) {
		cache := NewResultCache(60 * time.Second)
		first := &models.AggregateResult{}
		second := &models.AggregateResult{}

		cache.Put(first, now)
		cache.Put(second, now.Add(10*time.Second))

		result, ok := cache.Get(now.Add(20 * time.Second))
		require.True(t, ok)
		assert.Same(t, second, result)
	})

	t.Run("clear empties the cache", func(t *testing.T) {
		cache := NewResultCache(60 * time.Second)
		cache.Put(&models.AggregateResult{}, now)

		cache.Clear()

		_, ok := cache.Get(now)
		assert.False(t, ok)

		result, _ := cache.Peek()
		assert.Nil(t, result)
	})

	t.Run("peek returns stale entries", func(t *testing.T) {
		cache := NewResultCache(time.Second)
		stored := &models.AggregateResult{}
		cache.Put(stored, now)

		result, computedAt := cache.Peek()
		assert.Same(t, stored, result)
		assert.Equal(t, now, computedAt)
	})
}

// Test SetTTL
func TestResultCache_SetTTL(t *testing.T) {
	now := time.Now()
	cache := NewResultCache(60 * time.Second)
	cache.Put(&models.AggregateResult{}, now)

	// Fresh under the original TTL.
	_, ok := cache.Get(now.Add(45 * time.Second))
	assert.True(t, ok)

	// Shrinking the TTL makes the same entry stale.
	cache.SetTTL(30 * time.Second)
	assert.Equal(t, 30*time.Second, cache.TTL())

	_, ok = cache.Get(now.Add(45 * time.Second))
	assert.False(t, ok)

	// Extending it brings the entry back.
	cache.SetTTL(2 * time.Minute)
	_, ok = cache.Get(now.Add(45 * time.Second))
	assert.True(t, ok)
}
