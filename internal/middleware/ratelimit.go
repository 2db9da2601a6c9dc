package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig controls the per-client request rate limiter.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// clientLimiter pairs a token bucket with its last-seen time so idle
// entries can be evicted.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns a gin middleware that limits requests per client IP
// using a token bucket. Requests over the limit receive 429 with the
// standard envelope. Limiter entries idle for more than three minutes are
// evicted lazily on access.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		clients = make(map[string]*clientLimiter)
	)

	const idleEviction = 3 * time.Minute

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		for key, entry := range clients {
			if now.Sub(entry.lastSeen) > idleEviction {
				delete(clients, key)
			}
		}
		entry, ok := clients[ip]
		if !ok {
			entry = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)}
			clients[ip] = entry
		}
		entry.lastSeen = now
		allowed := entry.limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "fail",
				"message": "too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}
