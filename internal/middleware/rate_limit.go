package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ActionRateLimiter throttles mutating actions per signed-in email, falling
// back to the client IP.
func ActionRateLimiter(store middleware.RateLimiterStore) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if id, ok := IdentityOf(c); ok {
				return id.Email, nil
			}
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Logger().Warnf("too many actions from %s on %s %s", identifier, c.Request().Method, c.Path())
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many actions. Please wait a moment.")
		},
	})
}
