// ratelimit.go implements per-client rate limiting using a token bucket algorithm.
//
// How token bucket works:
// - Each client IP gets a "bucket" with N tokens (= RATE_LIMIT)
// - Each request consumes 1 token
// - Tokens refill at a steady rate (N tokens per hour)
// - If the bucket is empty, the request is rejected with 429 Too Many Requests
//
// This smooths out burst traffic better than a fixed-window counter.
package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
)

// RateLimiter tracks request rates per client IP.
type RateLimiter struct {
	limit float64 // tokens per hour; also the bucket size

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// bucket tracks the token state for a single client.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// allowResult contains the result of a rate limit check,
// including header information for the response.
type allowResult struct {
	allowed   bool
	remaining float64
}

// NewRateLimiter creates a limiter allowing perHour requests per client.
// A limit of 0 or less disables limiting.
func NewRateLimiter(perHour int) *RateLimiter {
	rl := &RateLimiter{
		limit:   float64(perHour),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
	if perHour > 0 {
		// Start background cleanup goroutine
		go rl.cleanup()
	}
	return rl
}

// Enabled reports whether the limiter rejects anything at all.
func (rl *RateLimiter) Enabled() bool {
	return rl.limit > 0
}

// RateLimit returns Gin middleware that enforces the per-client limit.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Enabled() {
			c.Next()
			return
		}

		result := rl.allow(c.ClientIP())
		c.Header("X-RateLimit-Limit", formatFloat(rl.limit))
		if !result.allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Rate limit exceeded. Try again later.",
				Code:    http.StatusTooManyRequests,
			})
			return
		}

		c.Header("X-RateLimit-Remaining", formatFloat(result.remaining))
		c.Next()
	}
}

// allow checks if a request should be allowed, consuming a token if so.
func (rl *RateLimiter) allow(client string) allowResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, exists := rl.buckets[client]
	if !exists {
		b = &bucket{tokens: rl.limit, lastRefill: now}
		rl.buckets[client] = b
	}

	// Refill tokens based on elapsed time
	refillRate := rl.limit / 3600.0 // tokens per second
	b.tokens += now.Sub(b.lastRefill).Seconds() * refillRate
	if b.tokens > rl.limit {
		b.tokens = rl.limit
	}
	b.lastRefill = now

	if b.tokens < 1.0 {
		return allowResult{allowed: false}
	}

	b.tokens--
	return allowResult{allowed: true, remaining: b.tokens}
}

// cleanup periodically removes stale buckets to prevent memory leaks.
func (rl *RateLimiter) cleanup() {
	// Go Pattern: time.Ticker sends values at regular intervals.
	// Always defer ticker.Stop() to release resources.
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := rl.now()
		for client, b := range rl.buckets {
			// A bucket idle for an hour is full again anyway
			if now.Sub(b.lastRefill) > time.Hour {
				delete(rl.buckets, client)
			}
		}
		rl.mu.Unlock()
	}
}

// formatFloat converts a float to a string for headers.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.0f", f)
}
