package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/veriphone/verify-api/internal/core/domain"
)

// errorResponse is the canonical envelope for all API errors.
type errorResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns the single boundary translator:
//   - Maps typed domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to clients.
//   - Renders a consistent envelope: {"success": false, "status", "message"}.
//
// Services never write HTTP responses; everything funnels through here.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Success: false, Status: code, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest, "Invalid request."
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusBadRequest, "Password does not meet policy: minimum 8 characters, including at least one uppercase letter, one lowercase letter, one number, and one special character."
	case errors.Is(err, domain.ErrResetTokenInvalid):
		return http.StatusBadRequest, "Reset token is invalid or has expired."
	case errors.Is(err, domain.ErrVerifyTokenInvalid):
		return http.StatusBadRequest, "Verification token is invalid."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials."
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired."
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, "Token invalid."
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Authentication required."
	case errors.Is(err, domain.ErrTokenReused):
		// Reuse of a rotated token is a compromise signal, not a retryable
		// condition.
		return http.StatusForbidden, "Access forbidden."
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access forbidden."
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found."
	case errors.Is(err, domain.ErrRoleNotFound):
		return http.StatusNotFound, "Role not found."
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "User with this email already exists."
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests, "Too many requests, please try again later."
	case errors.Is(err, domain.ErrServerMisconfigured):
		log.Error().Err(err).Msg("server misconfigured")
		return http.StatusInternalServerError, "Internal server error."
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error."
}
