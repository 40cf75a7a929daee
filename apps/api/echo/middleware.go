package echoapi

import (
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// rateLimitMiddleware throttles an endpoint per client IP.
func rateLimitMiddleware(r rate.Limit, burst int) echo.MiddlewareFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		lim, ok := limiters[ip]
		if !ok {
			lim = rate.NewLimiter(r, burst)
			limiters[ip] = lim
		}
		return lim
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !limiterFor(ctx.RealIP()).Allow() {
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}
