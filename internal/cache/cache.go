// Package cache implements the key-value cache layer (C3): a Redis-hash
// backed store with one week TTL, refreshed on every hit (positive or
// negative).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
)

const (
	field = "data"
	ttl   = 7 * 24 * time.Hour // 604800s
)

// Cache wraps a Redis client for the hashmap-style get/insert contract of
// spec.md §4.3: each key is a Redis hash with a single "data" field holding
// either the JSON-serialized entity or the empty string (negative hit).
type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache { return &Cache{rdb: rdb} }

// Namespace prefixes used to build keys, mirroring RedisKey in the
// original db_redis module.
const (
	KeyModeS        = "mode_s"
	KeyRegistration = "registration"
	KeyCallsign     = "callsign"
	KeyAirline      = "airline"
)

func Key(namespace, value string) string { return namespace + "::" + value }

// Result distinguishes a positive hit (Value populated), a negative hit
// (known absent), and a miss.
type Result struct {
	Hit      bool
	Negative bool
	Value    json.RawMessage
}

// Get fetches key, refreshing its TTL to one week on any hit.
func (c *Cache) Get(ctx context.Context, key string) (Result, error) {
	val, err := c.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, apperr.Cache(err)
	}
	if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return Result{}, apperr.Cache(err)
	}
	if val == "" {
		return Result{Hit: true, Negative: true}, nil
	}
	return Result{Hit: true, Value: json.RawMessage(val)}, nil
}

// Insert writes value (nil meaning "known absent") to key and sets TTL to
// one week.
func (c *Cache) Insert(ctx context.Context, key string, value any) error {
	var data string
	if value != nil {
		b, err := json.Marshal(value)
		if err != nil {
			return apperr.Internal(err)
		}
		data = string(b)
	}
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, field, data)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.Cache(err)
	}
	return nil
}

// Delete removes a key outright, used by PATCH invalidation.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return apperr.Cache(err)
	}
	return nil
}
