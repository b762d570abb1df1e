package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
)

const identityKey = "identity"

// Authenticate verifies the Bearer access token and injects the resolved
// Identity into the request context. Missing or expired credentials are 401
// (retry with fresh ones); any other verification failure is 403.
func Authenticate(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return domain.ErrUnauthorized
			}

			claims, err := tokens.VerifyAccessToken(token)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return domain.ErrTokenExpired
				}
				return domain.ErrForbidden
			}

			c.Set(identityKey, domain.Identity{
				UserID:   claims.UserID,
				Role:     claims.Role,
				Email:    claims.Email,
				TenantID: claims.TenantID,
			})
			return next(c)
		}
	}
}

// OptionalAuthenticate resolves an Identity when a valid token is present and
// falls back to the anonymous identity otherwise. It never fails the request;
// downstream guards and the rate limiter decide what anonymous callers may
// do.
func OptionalAuthenticate(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := domain.Anonymous()
			if token, ok := bearerToken(c); ok {
				if claims, err := tokens.VerifyAccessToken(token); err == nil {
					identity = domain.Identity{
						UserID:   claims.UserID,
						Role:     claims.Role,
						Email:    claims.Email,
						TenantID: claims.TenantID,
					}
				}
			}
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by the auth middleware, or the
// anonymous identity when none ran.
func IdentityFrom(c echo.Context) domain.Identity {
	identity, ok := c.Get(identityKey).(domain.Identity)
	if !ok || identity.Role == "" {
		return domain.Anonymous()
	}
	return identity
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
