// Package ratelimit bounds the cost-sensitive outbound calls (the line-item
// suggestion assistant) and the public intake endpoint. The window state
// lives in Redis so the limit holds across instances; when Redis is not
// configured the limiter is disabled and everything is allowed, matching the
// behavior of running without the backing service.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter keyed by caller identity.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// New creates a limiter allowing limit events per window per key. A nil
// client disables limiting.
func New(rdb *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Allow reports whether the event identified by key may proceed. Errors from
// Redis fail open: an unavailable limiter must not take the feature down.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}

	bucket := time.Now().Unix() / int64(l.window.Seconds())
	redisKey := fmt.Sprintf("%s:%s:%s", l.prefix, key, strconv.FormatInt(bucket, 10))

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("ratelimit incr: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}
