package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is a thin wrapper over a Redis client used for read-heavy endpoints
// such as the facility layout. A nil Cache (or one with a nil client) is a
// valid pass-through: Get always misses and writes are dropped.
type Cache struct {
	client *redis.Client
}

// New connects to Redis at redisURL. An empty URL returns a pass-through
// cache so callers never need nil checks.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	if redisURL == "" {
		return &Cache{}, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Cache{client: client}, nil
}

// Enabled reports whether a real Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached value for key, or ("", false) on a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores value under key with the given TTL. Errors are ignored: the
// cache is advisory and the store remains the source of truth.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	_ = c.client.Set(ctx, key, value, ttl).Err()
}

// Invalidate removes keys matching pattern.
func (c *Cache) Invalidate(ctx context.Context, pattern string) {
	if !c.Enabled() {
		return
	}
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
