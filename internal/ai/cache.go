package ai

import (
	"context"
	"time"

	"github.com/chetan13062004/agromate/config"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// Cache stores generated text by key
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
}

const cachePrefix = "agromate:ai:"

// RedisCache keeps generated descriptions in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	v, err := c.client.Get(ctx, cachePrefix+key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	return errors.Wrap(c.client.Set(ctx, cachePrefix+key, value, c.ttl).Err(), "redis set")
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (string, bool) { return "", false }
func (nopCache) Set(context.Context, string, string) error  { return nil }

// NewCache connects to Redis when an address is configured, otherwise
// caching is disabled. The returned close func releases the client.
func NewCache(ctx context.Context, rc config.RedisConfig, ttl time.Duration) (Cache, func() error, error) {
	if rc.Addr == "" {
		return nopCache{}, func() error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrapf(err, "connect redis %s", rc.Addr)
	}
	return NewRedisCache(client, ttl), client.Close, nil
}
