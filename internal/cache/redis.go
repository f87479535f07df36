package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisNamespace = "engagesphere:query:"

// RedisCache shares the query cache between dashboard instances.
type RedisCache struct {
	Client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{Client: redis.NewClient(&redis.Options{Addr: addr})}
}

func redisKey(key Key) string {
	return redisNamespace + key.String()
}

func (c *RedisCache) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	b, err := c.Client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	if err := c.Client.Set(ctx, redisKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes the exact key plus every key nested below it.
func (c *RedisCache) Invalidate(ctx context.Context, prefix Key) (int, error) {
	exact := redisKey(prefix)
	keys := []string{exact}

	iter := c.Client.Scan(ctx, 0, exact+"/*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan %s: %w", prefix, err)
	}

	n, err := c.Client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del %s: %w", prefix, err)
	}
	return int(n), nil
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

var _ QueryCache = (*RedisCache)(nil)
