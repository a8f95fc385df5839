package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis. Expiry is handled by Redis itself.
type RedisCache struct {
	client redis.UniversalClient
	prefix string // namespace used by Clear
}

// NewRedisCache connects to the server at url (redis:// or rediss://) and
// pings it. Clear only removes keys starting with prefix; an empty prefix
// clears every key the cache can see.
func NewRedisCache(ctx context.Context, url, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := NewRedisCacheFromClient(redis.NewClient(opts), prefix)

	err = RetryWithBackoff(ctx, func() error {
		return c.classify(c.client.Ping(ctx).Err())
	})
	if err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("%w: redis: %v", ErrUnavailable, err)
	}
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client. The cache takes
// ownership and closes the client in Close.
func NewRedisCacheFromClient(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	var hit bool
	err := RetryWithBackoff(ctx, func() error {
		b, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			hit = false
			return nil
		}
		if err != nil {
			return c.classify(err)
		}
		data, hit = b, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return data, hit, nil
}

// Set stores a value in Redis. A zero ttl stores without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return RetryWithBackoff(ctx, func() error {
		return c.classify(c.client.Set(ctx, key, data, ttl).Err())
	})
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return RetryWithBackoff(ctx, func() error {
		return c.classify(c.client.Del(ctx, key).Err())
	})
}

// Clear deletes every key under the cache's prefix using SCAN, so it does
// not block the server on large keyspaces.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	const batch = 500
	count := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", batch).Iterator()
	keys := make([]string, 0, batch)

	flush := func() error {
		if len(keys) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		count += int(n)
		keys = keys[:0]
		return nil
	}

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == batch {
			if err := flush(); err != nil {
				return count, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("redis scan: %w", err)
	}
	return count, flush()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// classify marks connection-level failures as retryable. Context errors and
// server replies such as WRONGTYPE are returned as-is.
func (c *RedisCache) classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		return fmt.Errorf("redis: %w", err)
	}
	return Retryable(fmt.Errorf("%w: redis: %v", ErrNetwork, err))
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
