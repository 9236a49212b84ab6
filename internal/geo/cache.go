package geo

import (
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/dgraph-io/ristretto"
)

// Cache keeps resolved locations in memory, keyed by hashed IP so raw
// addresses are never retained.
type Cache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewCache holds up to maxEntries locations for ttl each.
func NewCache(maxEntries int64, ttl time.Duration) (*Cache, error) {
	maxEntries = max(1, maxEntries)

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		// cost is counted in entries, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{cache: cache, ttl: ttl}, nil
}

func (c *Cache) Get(key string) (domain.GeoLocation, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return domain.GeoLocation{}, false
	}
	loc, ok := val.(domain.GeoLocation)
	return loc, ok
}

// Set is asynchronous; a following Get may still miss.
func (c *Cache) Set(key string, loc domain.GeoLocation) {
	if c.ttl > 0 {
		c.cache.SetWithTTL(key, loc, 1, c.ttl)
		return
	}
	c.cache.Set(key, loc, 1)
}

// Wait blocks until pending Sets are applied.
func (c *Cache) Wait() {
	c.cache.Wait()
}

func (c *Cache) Close() {
	c.cache.Close()
}
