package domain

import "errors"

// Typed errors returned by the core services. HTTP status mapping lives in
// the API error handler, never here.
var (
	ErrBadRequest         = errors.New("bad request")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("authentication required")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenReused        = errors.New("refresh token reused")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrRoleNotFound       = errors.New("role not found")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")
	ErrVerifyTokenInvalid = errors.New("verification token invalid")

	// ErrServerMisconfigured signals missing signing secrets or similar
	// startup invariants that drifted at runtime.
	ErrServerMisconfigured = errors.New("server misconfigured")
)
