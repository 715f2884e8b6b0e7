package ebird

import (
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/ebird-recommend/internal/logger"
	"github.com/tphakala/ebird-recommend/internal/observability/metrics"
)

// Store is a persistent response cache shared across process runs.
// obscache.Cache satisfies it.
type Store interface {
	Get(key string, dest any) (bool, error)
	Set(key string, value any, ttl time.Duration) error
}

// cacheKey builds a stable key from the request path and query.
// url.Values.Encode sorts by key, so parameter order never matters.
func cacheKey(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

// cacheLookup checks the memory tier, then the persistent store. A store hit
// is promoted into memory.
func cacheLookup[T any](c *Client, key string) ([]T, bool) {
	if c.config.DisableCache {
		return nil, false
	}

	if cached, found := c.cache.Get(key); found {
		if items, ok := cached.([]T); ok {
			c.metrics.RecordCacheHit(metrics.TierMemory)
			return items, true
		}
	}

	if c.store != nil {
		var items []T
		found, err := c.store.Get(key, &items)
		if err != nil {
			c.log.Warn("persistent cache read failed",
				logger.String("cache_key", key),
				logger.Error(err))
		} else if found {
			c.cache.Set(key, items, cache.DefaultExpiration)
			c.metrics.RecordCacheHit(metrics.TierDisk)
			return items, true
		}
	}

	c.metrics.RecordCacheMiss()
	return nil, false
}

// cacheStore writes a decoded response to every enabled tier.
func cacheStore[T any](c *Client, key string, items []T) {
	if c.config.DisableCache {
		return
	}

	c.cache.Set(key, items, cache.DefaultExpiration)

	if c.store != nil {
		if err := c.store.Set(key, items, c.config.CacheTTL); err != nil {
			c.log.Warn("persistent cache write failed",
				logger.String("cache_key", key),
				logger.Error(err))
		}
	}
}

// ClearCache clears the in-memory tier. The persistent store is cleared
// through its own handle.
func (c *Client) ClearCache() {
	c.cache.Flush()
	c.log.Info("eBird memory cache cleared")
}

// CacheItemCount returns the number of entries in the memory tier
func (c *Client) CacheItemCount() int {
	return c.cache.ItemCount()
}
