package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
	"github.com/propertyhub/rental-api/internal/pkg/metrics"
)

// RateLimit caps requests per client IP and route. When the limiter backend
// fails the request is let through.
func RateLimit(limiter ports.RateLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			ok, err := limiter.Allow(c.Request().Context(), c.RealIP()+":"+route)
			if err != nil {
				log.Warn().Err(err).Str("path", route).Msg("rate limiter unavailable")
				return next(c)
			}
			if !ok {
				metrics.RateLimitedTotal.WithLabelValues(route).Inc()
				return domain.ErrRateLimited
			}
			return next(c)
		}
	}
}
