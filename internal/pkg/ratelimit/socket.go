package ratelimit

import (
	"golang.org/x/time/rate"
)

// SocketLimiter is a per-socket token bucket with no cross-socket sharing,
// as §5 of the spec requires for WS subscribe (10/min).
type SocketLimiter struct {
	limiter *rate.Limiter
}

// NewSocketLimiter builds a token bucket allowing burst subscribes up to
// perMinute tokens, refilling at perMinute/minute.
func NewSocketLimiter(perMinute int) *SocketLimiter {
	return &SocketLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
	}
}

// Allow consumes one token, reporting whether the subscribe may proceed.
func (s *SocketLimiter) Allow() bool {
	return s.limiter.Allow()
}
