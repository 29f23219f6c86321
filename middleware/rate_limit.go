package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 3 * time.Minute
	limiterIdleAfter  = 5 * time.Minute
)

// ThrottledMessage is the detail returned with a 429.
const ThrottledMessage = "Request was throttled."

// visitor holds one client's limiter and when it was last used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client key, by default the real IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	key      func(echo.Context) string
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing r requests per second with the given burst.
// Idle entries are swept until ctx is done.
func NewRateLimiter(ctx context.Context, r rate.Limit, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    burst,
		key:      func(c echo.Context) string { return c.RealIP() },
		now:      time.Now,
	}
	go rl.sweep(ctx)
	return rl
}

// PerMinute converts a per-minute count to a rate.Limit.
func PerMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60.0)
}

// WithKey replaces the function that identifies a client.
func (rl *RateLimiter) WithKey(fn func(echo.Context) string) *RateLimiter {
	rl.key = fn
	return rl
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = rl.now()
		return v.limiter
	}
	l := rate.NewLimiter(rl.rate, rl.burst)
	rl.visitors[key] = &visitor{limiter: l, lastSeen: rl.now()}
	return l
}

func (rl *RateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for k, v := range rl.visitors {
				if rl.now().Sub(v.lastSeen) > limiterIdleAfter {
					delete(rl.visitors, k)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Middleware rejects over-limit requests with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limiter := rl.get(rl.key(c))

			res := limiter.Reserve()
			if !res.OK() {
				return echo.NewHTTPError(http.StatusTooManyRequests, ThrottledMessage)
			}
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				wait := int(math.Ceil(delay.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(max(wait, 1)))
				return echo.NewHTTPError(http.StatusTooManyRequests, ThrottledMessage)
			}
			return next(c)
		}
	}
}
