package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"stockpos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ── Per-IP token bucket ───────────────────────────────────────────────────────

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu    sync.Mutex
	ips   map[string]*limiterEntry
	rate  rate.Limit
	burst int
	ttl   time.Duration
}

// NewIPRateLimiter allows rpm requests per minute per IP, with a burst of a
// tenth of that (at least 1).
func NewIPRateLimiter(rpm int) *IPRateLimiter {
	if rpm <= 0 {
		rpm = 1000
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		ips:   make(map[string]*limiterEntry),
		rate:  rate.Every(time.Minute / time.Duration(rpm)),
		burst: burst,
		ttl:   5 * time.Minute,
	}
}

func (rl *IPRateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	e, ok := rl.ips[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.ips[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// Purge drops IPs not seen within the TTL and returns how many were removed.
func (rl *IPRateLimiter) Purge(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for ip, e := range rl.ips {
		if now.Sub(e.lastSeen) > rl.ttl {
			delete(rl.ips, ip)
			n++
		}
	}
	return n
}

// StartPurge removes stale entries every TTL until ctx is done.
func (rl *IPRateLimiter) StartPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(rl.ttl)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := rl.Purge(now); n > 0 {
					log.Debug().Int("purged", n).Msg("rate limiter entries purged")
				}
			}
		}
	}()
}

// Middleware rejects requests over the per-IP budget with 429.
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.WithCode(apierror.CodeRateLimited, "too many requests, try again shortly"))
			return
		}
		c.Next()
	}
}
