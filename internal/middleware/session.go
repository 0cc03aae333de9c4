package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/anonto42/nastani/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (session.Identity, error)
}

// Authenticate resolves the bearer token with the first verifier that accepts
// it and stores the identity in the request context. With required set, a
// missing or rejected token ends the request with 401.
func Authenticate(required bool, verifiers ...TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				if required {
					return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
				}
				return next(c)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			ctx := c.Request().Context()
			for _, v := range verifiers {
				id, err := v.Verify(ctx, parts[1])
				if err != nil {
					c.Logger().Debugf("token rejected: %v", err)
					continue
				}
				if id.Email == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token carries no email")
				}
				c.SetRequest(c.Request().WithContext(session.WithIdentity(ctx, id)))
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}
	}
}

// IdentityOf returns the identity stored by Authenticate.
func IdentityOf(c echo.Context) (session.Identity, bool) {
	return session.FromContext(c.Request().Context())
}
