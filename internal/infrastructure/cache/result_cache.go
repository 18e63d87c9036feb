package cache

import (
	"context"
	"sync"
	"time"

	"github.com/damon-houk/ratepivot/internal/domain/entity"
)

// DefaultExpiration is how long a pivot result stays cached
const DefaultExpiration = 10 * time.Minute

// CacheEntry represents a cached pivot result with its insertion time
type CacheEntry struct {
	Series    []entity.PriceSeries
	Timestamp time.Time
}

// ResultCache provides a thread-safe in-memory cache for pivot results
type ResultCache struct {
	cache      map[string]CacheEntry
	expiration time.Duration
	mutex      sync.RWMutex
}

// NewResultCache creates a new result cache
func NewResultCache(expiration time.Duration) *ResultCache {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &ResultCache{
		cache:      make(map[string]CacheEntry),
		expiration: expiration,
	}
}

// Get retrieves a result from the cache if available and not expired
func (c *ResultCache) Get(key string) []entity.PriceSeries {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[key]

	// Return nil if entry doesn't exist or is expired
	if !exists || time.Since(entry.Timestamp) > c.expiration {
		return nil
	}

	return entry.Series
}

// Put stores a result in the cache
func (c *ResultCache) Put(key string, series []entity.PriceSeries) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = CacheEntry{
		Series:    series,
		Timestamp: time.Now(),
	}
}

// Find implements repository.PivotResultRepository
func (c *ResultCache) Find(_ context.Context, key string) ([]entity.PriceSeries, bool, error) {
	series := c.Get(key)
	return series, series != nil, nil
}

// Store implements repository.PivotResultRepository
func (c *ResultCache) Store(_ context.Context, key string, series []entity.PriceSeries) error {
	c.Put(key, series)
	return nil
}

// Clear clears all entries from the cache
func (c *ResultCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string]CacheEntry)
}

// SetExpiration sets the cache expiration duration
func (c *ResultCache) SetExpiration(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.expiration = duration
}

// Size returns the number of items in the cache
func (c *ResultCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CleanExpired removes expired entries from the cache
func (c *ResultCache) CleanExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	count := 0
	now := time.Now()

	for key, entry := range c.cache {
		if now.Sub(entry.Timestamp) > c.expiration {
			delete(c.cache, key)
			count++
		}
	}

	return count
}

// RunJanitor removes expired entries every interval until ctx is cancelled
func (c *ResultCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CleanExpired()
		}
	}
}
