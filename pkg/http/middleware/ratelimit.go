package middleware

import (
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	RPS     float64
	Burst   int
	Clients int           // max tracked clients
	IdleTTL time.Duration // forget clients idle this long
	Skip    func(c echo.Context) bool
}

// RateLimit limits each client IP to RPS with Burst, answering 429 when exhausted.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Clients <= 0 {
		cfg.Clients = 10_000
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	limiters := expirable.NewLRU[string, *rate.Limiter](cfg.Clients, nil, cfg.IdleTTL)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skip != nil && cfg.Skip(c) {
				return next(c)
			}
			ip := c.RealIP()
			lim, ok := limiters.Get(ip)
			if !ok {
				lim = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
				limiters.Add(ip, lim)
			}
			if !lim.Allow() {
				c.Response().Header().Set(echo.HeaderRetryAfter, "1")
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error":   "Too many requests",
					"details": "rate limit exceeded, retry later",
					"type":    "RateLimited",
				})
			}
			return next(c)
		}
	}
}
