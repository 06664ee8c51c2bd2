// Package routecache stores resolved route distances in Redis so repeated
// runs avoid querying the routing service again.
package routecache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kilianp07/fieldsim/core/factory"
	"github.com/kilianp07/fieldsim/core/routing"
)

// Config configures a RedisCache.
type Config struct {
	Addr     string        `json:"addr"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	Prefix   string        `json:"prefix"`
	TTL      time.Duration `json:"ttl"`
}

// redisClient is the subset of the go-redis client used by the cache.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

var newRedisClient = func(cfg Config) redisClient {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisCache implements routing.Cache on Redis strings holding kilometers.
type RedisCache struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

func NewRedisCache(cfg Config) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("routecache: addr is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "fieldsim:route:"
	}
	return &RedisCache{client: newRedisClient(cfg), prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (float64, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	km, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("routecache: corrupt value for %s: %w", key, err)
	}
	return km, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, km float64) error {
	return c.client.Set(ctx, c.prefix+key, strconv.FormatFloat(km, 'f', -1, 64), c.ttl).Err()
}

func (c *RedisCache) Close() error { return c.client.Close() }

func init() {
	_ = routing.RegisterCache("redis", func(conf map[string]any) (routing.Cache, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRedisCache(c)
	})
}
