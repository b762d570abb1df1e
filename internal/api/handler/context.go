package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/veriphone/verify-api/internal/api/middleware"
	"github.com/veriphone/verify-api/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the auth middleware and
// performs a fast-fail check before any service call: routes that call this
// require an authenticated subject, so an anonymous identity is rejected with
// 401 even if the route was misregistered without the auth middleware.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	identity := middleware.IdentityFrom(c)
	if identity.IsAnonymous() {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return identity, nil
}
