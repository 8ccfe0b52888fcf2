// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RateLimiter is a process-local token bucket per operator (or client IP for
// anonymous traffic) built on golang.org/x/time/rate. Idle buckets are
// swept every sweepEvery lookups. Replays detected by IdempotencyValidator
// skip the limiter.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	bucketIdleTTL = 10 * time.Minute
	sweepEvery    = 5000
)

// KeyFunc maps a request to a bucket identity.
type KeyFunc func(*gin.Context) string

// KeyByOperatorOrIP buckets by operator id when the request names one and by
// client IP otherwise.
func KeyByOperatorOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if id := OperatorID(c); id != DefaultOperator {
			return "op:" + id
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per key. Safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	key   KeyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
	idleTTL time.Duration
}

// NewRateLimiter allows rps requests per second per key with the given
// burst (at least 1).
func NewRateLimiter(rps float64, burst int, key KeyFunc) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		key:     key,
		buckets: make(map[string]*bucket),
		idleTTL: bucketIdleTTL,
	}
}

// limiterFor returns the bucket for key. The sweep runs before the lookup so
// a stale bucket is replaced rather than refreshed.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.limit, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// size reports the number of live buckets.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Handler rejects requests over the limit with 429 and Retry-After: 1.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsReplay(c) {
			c.Next()
			return
		}
		if rl.limiterFor(rl.key(c), time.Now()).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": GetRequestID(c),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
