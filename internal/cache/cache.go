// Package cache provides a small JSON cache on top of Redis, used to serve
// dashboard aggregates without recomputing them on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores JSON-encoded values under a key prefix.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedis wraps rdb. Keys are namespaced with prefix (e.g. "backoffice:").
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

// Get decodes the value stored at key into dst. It reports false on a miss.
func (c *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores v at key for ttl. A zero ttl stores nothing.
func (c *Redis) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, b, ttl).Err()
}

// Delete removes keys. Missing keys are not an error.
func (c *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.rdb.Del(ctx, full...).Err()
}
