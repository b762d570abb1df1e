package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/rbac"
)

// RequirePermission allows the request only when the caller's role holds the
// permission in the current catalog snapshot. Roles missing from the catalog
// authorize nothing. Safe to compose several times after one Authenticate.
func RequirePermission(catalog *rbac.Catalog, permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if catalog.HasPermission(identity.Role, permission) {
				return next(c)
			}
			if identity.IsAnonymous() {
				// No authentication context where a non-anonymous check is
				// required.
				return domain.ErrUnauthorized
			}
			return domain.ErrForbidden
		}
	}
}

// RequireRole enforces exact role-name membership.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if _, ok := allowed[identity.Role]; ok {
				return next(c)
			}
			if identity.IsAnonymous() {
				return domain.ErrUnauthorized
			}
			return domain.ErrForbidden
		}
	}
}
