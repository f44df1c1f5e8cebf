// Package ratelimit implements the two rate limiters this spec requires:
// a Redis-backed per-IP fixed window for HTTP, and an in-process
// per-socket token bucket for WS subscribe.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/restaurant-bff/core/internal/pkg/redis"
)

// HTTPLimiter enforces a per-IP request budget within fixed windows,
// using the donor's INCR+Expire idiom on a key whose bucket is the Unix
// time divided by the window length in seconds.
type HTTPLimiter struct {
	rdb    redis.KV
	prefix string
	limit  int64
	window time.Duration
}

// NewHTTPLimiter builds a limiter allowing limit requests per window,
// keyed under prefix (e.g. "bff:rl:http" or "bff:rl:photos").
func NewHTTPLimiter(rdb redis.KV, prefix string, limit int64, window time.Duration) *HTTPLimiter {
	return &HTTPLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Allow reports whether the given IP may proceed, and if not, the number
// of seconds the caller should wait before retrying.
func (l *HTTPLimiter) Allow(ctx context.Context, ip string) (allowed bool, retryAfterSeconds int, err error) {
	bucket := time.Now().Unix() / int64(l.window.Seconds())
	key := fmt.Sprintf("%s:%s:%d", l.prefix, ip, bucket)

	count, err := l.rdb.IncrWithExpire(ctx, key, l.window)
	if err != nil {
		return false, 0, err
	}
	if count > l.limit {
		return false, int(l.window.Seconds()), nil
	}
	return true, 0, nil
}
