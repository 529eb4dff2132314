// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a lightweight, in-memory, per-IP token-bucket rate
// limiter with opportunistic garbage collection. Buckets refill at max/window
// tokens per second with a burst of max, approximating "at most max requests
// per window per client" in a single-process deployment.
//
// Notes:
//   - The limiter is process-local. Horizontally scaled deployments should
//     enforce global limits with a distributed limiter instead.
//   - All clients behind one NAT or proxy share a bucket; the limiter is an
//     abuse-control edge, not an authorization mechanism.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// rateLimitMessage is the fixed client-facing body of a 429 response.
const rateLimitMessage = "Too many requests from this IP, please try again in an hour!"

// ipVisitor holds a single client's limiter and the last time it was seen,
// so idle buckets can be evicted.
type ipVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter enforces a per-client-IP request quota over a rolling window.
//
// Buckets are created on demand and stored in a mutex-guarded map. Idle
// buckets are evicted opportunistically during lookups to bound memory.
// Safe for concurrent use.
type IPLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*ipVisitor
	ttl      time.Duration
	cleanupN uint64
}

// NewIPLimiter allows roughly max requests per window from each client IP.
// Values <= 0 fall back to 100 requests per hour.
func NewIPLimiter(max int, window time.Duration) *IPLimiter {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = time.Hour
	}
	return &IPLimiter{
		rps:      rate.Limit(float64(max) / window.Seconds()),
		burst:    max,
		visitors: make(map[string]*ipVisitor),
		ttl:      2 * window, // evict buckets idle for two full windows
	}
}

// getVisitor returns (and refreshes) the limiter for ip, creating it if
// absent. Idle entries are collected after ~5000 lookups; the sweep runs
// before the fetch so a stale bucket can be evicted even when it is the one
// requested.
func (rl *IPLimiter) getVisitor(ip string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[ip]; ok {
		v.lastSeen = now
		lim := v.limiter
		rl.mu.Unlock()
		return lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[ip] = &ipVisitor{limiter: lim, lastSeen: now}
	rl.mu.Unlock()
	return lim
}

// Handler returns a Gin middleware enforcing the per-IP quota. Rejected
// requests get a 429 with the fixed message and a minimal Retry-After header.
func (rl *IPLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.getVisitor(c.ClientIP()).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "60")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"status":  "fail",
			"message": rateLimitMessage,
		})
	}
}
