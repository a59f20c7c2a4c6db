// Package ratelimit implements the two-tier per-IP rate limiter (C4).
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
)

const keyPrefix = "ratelimit::"

const (
	sixtySeconds        = 60 * time.Second
	threeHundredSeconds = 300 * time.Second
)

type Limiter struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Limiter { return &Limiter{rdb: rdb} }

// Allow increments the per-IP counter and enforces the escalating TTL policy
// of spec.md §4.4:
//   - miss before increment: TTL set to 60s.
//   - post-increment count == 120: TTL set to 60s, reject.
//   - post-increment count > 120: reject with the remaining TTL.
//   - post-increment count >= 240: extend TTL to 300s (does not by itself reject).
//
// Returns a *apperr.Error with KindRateLimited when the request must be
// rejected, nil otherwise.
func (l *Limiter) Allow(ctx context.Context, ip string) error {
	key := keyPrefix + ip

	existed, err := l.rdb.Exists(ctx, key).Result()
	if err != nil {
		return apperr.Cache(err)
	}

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return apperr.Cache(err)
	}

	if existed == 0 {
		if err := l.rdb.Expire(ctx, key, sixtySeconds).Err(); err != nil {
			return apperr.Cache(err)
		}
		return nil
	}

	if count >= 240 {
		if err := l.rdb.Expire(ctx, key, threeHundredSeconds).Err(); err != nil {
			return apperr.Cache(err)
		}
	}

	switch {
	case count == 120:
		if err := l.rdb.Expire(ctx, key, sixtySeconds).Err(); err != nil {
			return apperr.Cache(err)
		}
		return apperr.RateLimited(60)
	case count > 120:
		window, err := l.rdb.TTL(ctx, key).Result()
		if err != nil {
			return apperr.Cache(err)
		}
		secs := int(window.Seconds())
		if secs < 0 {
			secs = 0
		}
		return apperr.RateLimited(secs)
	}

	return nil
}
