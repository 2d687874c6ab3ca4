package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Version formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// RedisCache caches catalog pages under a version-stamped namespace.
// Invalidate bumps the version, so stale pages are never read again and
// simply expire.
type RedisCache struct {
	rdb    *redis.Client // Redis client
	prefix string        // Namespace, e.g. "catalog"
	ttl    time.Duration // Entry lifetime
}

// NewRedisCache creates a cache in the given namespace
func NewRedisCache(rdb *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

// versionKey holds the current namespace version
func (c *RedisCache) versionKey() string {
	return c.prefix + ":version"
}

// key places a logical key inside the namespace of version
func (c *RedisCache) key(version int64, key string) string {
	return c.prefix + ":v" + strconv.FormatInt(version, 10) + ":" + key
}

// Version returns the current namespace version
func (c *RedisCache) Version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, c.versionKey()).Int64()
	if err == redis.Nil {
		return 0, nil // Nothing invalidated yet
	}
	return v, err
}

// Get reads a value cached under version into dest
func (c *RedisCache) Get(ctx context.Context, version int64, key string, dest any) (bool, error) {
	return GetCache(ctx, c.rdb, c.key(version, key), dest)
}

// Set stores value under version for the cache TTL. A version that has
// since been invalidated is written but never read.
func (c *RedisCache) Set(ctx context.Context, version int64, key string, value any) error {
	return SetCache(ctx, c.rdb, c.key(version, key), value, c.ttl)
}

// Invalidate moves the namespace to a new version
func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, c.versionKey()).Err()
}
