package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/donaldgifford/smartsell/internal/metrics"
)

// rateLimitIdle is how long a client's limiter is kept after its last request.
const rateLimitIdle = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	now     func() time.Time

	lastEvict time.Time
}

// NewRateLimiter creates a RateLimiter allowing perSecond requests per
// client with the given burst. A non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether the client identified by key may make a request now.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastEvict) > rateLimitIdle {
		rl.evictLocked(now)
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// Evict drops limiters idle for longer than rateLimitIdle and returns how
// many remain.
func (rl *RateLimiter) Evict() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.evictLocked(rl.now())
	return len(rl.clients)
}

func (rl *RateLimiter) evictLocked(now time.Time) {
	cutoff := now.Add(-rateLimitIdle)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
	rl.lastEvict = now
}

// RateLimit returns Echo middleware that rejects requests over the client's
// budget with 429. Operational paths are never limited.
func RateLimit(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, skip := metricsSkipPaths[c.Request().URL.Path]; skip {
				return next(c)
			}

			if !rl.Allow(c.RealIP()) {
				metrics.RateLimitedTotal.Inc()
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter(rl.limit)))
				c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
				return c.JSON(http.StatusTooManyRequests, problem{
					Title:  http.StatusText(http.StatusTooManyRequests),
					Status: http.StatusTooManyRequests,
					Detail: "rate limit exceeded",
				})
			}

			return next(c)
		}
	}
}

// retryAfter is the whole number of seconds until one token refills.
func retryAfter(limit rate.Limit) int {
	if limit >= 1 {
		return 1
	}
	return int(math.Ceil(1 / float64(limit)))
}
