package ratelimit

import (
	"strconv"

	"github.com/labstack/echo/v4"

	xhttp "CoinSense/pkg/http"
)

// KeyFunc picks the bucket for a request.
type KeyFunc func(c echo.Context) string

// RealIP keys requests by client address.
func RealIP(c echo.Context) string { return c.RealIP() }

// Middleware rejects requests over the per-key budget with 429.
func Middleware(l *Limiter, key KeyFunc) echo.MiddlewareFunc {
	if key == nil {
		key = RealIP
	}
	retryAfter := "1"
	if l.rps > 0 && l.rps < 1 {
		retryAfter = strconv.Itoa(int(1/l.rps + 0.5))
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(key(c)) {
				c.Response().Header().Set("Retry-After", retryAfter)
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests, slow down"))
			}
			return next(c)
		}
	}
}
