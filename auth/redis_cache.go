package auth

import (
	"context"
	"time"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/errors"
	"github.com/redis/go-redis/v9"
)

// RedisCache backs the validation cache with Redis for multi-instance
// deployments. Failures surface as errors and are absorbed by the
// validator's soft-fail wrappers.
type RedisCache struct {
	client *redis.Client
}

var (
	_ Cache = (*RedisCache)(nil)
)

func NewRedisCache(conf *config.AuthConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		}),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "redis get failed for %s", key)
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	err := c.client.Set(ctx, key, value, ttl).Err()
	return errors.Wrapf(err, "redis set failed for %s", key)
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
