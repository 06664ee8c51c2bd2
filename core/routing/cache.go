package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/fieldsim/core/logger"
	"github.com/kilianp07/fieldsim/core/model"
)

// Cache stores resolved distances in kilometers.
type Cache interface {
	Get(ctx context.Context, key string) (km float64, ok bool, err error)
	Set(ctx context.Context, key string, km float64) error
}

// CacheKey identifies an origin/destination pair at roughly one meter
// precision.
func CacheKey(from, to model.Coordinate) string {
	return fmt.Sprintf("%.5f,%.5f;%.5f,%.5f", from.Lat, from.Lon, to.Lat, to.Lon)
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]float64
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache { return &MemoryCache{m: make(map[string]float64)} }

func (c *MemoryCache) Get(_ context.Context, key string) (float64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	km, ok := c.m[key]
	return km, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, km float64) error {
	c.mu.Lock()
	c.m[key] = km
	c.mu.Unlock()
	return nil
}

// CachingOracle serves distances from a Cache and falls back to the wrapped
// Oracle. Only successful lookups are stored. Cache failures are logged and
// otherwise ignored.
type CachingOracle struct {
	inner Oracle
	cache Cache
	log   logger.Logger
}

// NewCachingOracle decorates inner with cache.
func NewCachingOracle(inner Oracle, cache Cache, log logger.Logger) *CachingOracle {
	if log == nil {
		log = logger.Nop{}
	}
	return &CachingOracle{inner: inner, cache: cache, log: log}
}

// Distance implements Oracle.
func (c *CachingOracle) Distance(ctx context.Context, from, to model.Coordinate) (float64, error) {
	res, err := c.Lookup(ctx, from, to)
	return res.DistanceKM, err
}

// Lookup implements LookupOracle.
func (c *CachingOracle) Lookup(ctx context.Context, from, to model.Coordinate) (Lookup, error) {
	start := time.Now()
	key := CacheKey(from, to)
	km, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warnf("route cache get %s: %v", key, err)
	}
	if ok {
		return Lookup{DistanceKM: km, Found: true, Cached: true, Latency: time.Since(start)}, nil
	}
	res, err := Resolve(ctx, c.inner, from, to)
	if err != nil {
		return res, err
	}
	if err := c.cache.Set(ctx, key, res.DistanceKM); err != nil {
		c.log.Warnf("route cache set %s: %v", key, err)
	}
	return res, nil
}
