package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/veriphone/verify-api/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, errorResponse) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
	e.GET("/boom", func(echo.Context) error { return err })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid envelope: %v (%s)", err, rec.Body.String())
	}
	return rec.Code, resp
}

func TestErrorHandler_DomainErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"bad request", domain.ErrBadRequest, http.StatusBadRequest, "Invalid request."},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials."},
		{"expired token", domain.ErrTokenExpired, http.StatusUnauthorized, "Token expired."},
		{"invalid token", domain.ErrTokenInvalid, http.StatusUnauthorized, "Token invalid."},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "Authentication required."},
		{"token reuse", domain.ErrTokenReused, http.StatusForbidden, "Access forbidden."},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "Access forbidden."},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, "User not found."},
		{"role not found", domain.ErrRoleNotFound, http.StatusNotFound, "Role not found."},
		{"duplicate user", domain.ErrUserExists, http.StatusConflict, "User with this email already exists."},
		{"rate limited", domain.ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests, please try again later."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, resp := renderError(t, tc.err)
			if code != tc.code {
				t.Fatalf("status = %d, want %d", code, tc.code)
			}
			if resp.Success || resp.Status != tc.code || resp.Message != tc.message {
				t.Fatalf("unexpected envelope: %+v", resp)
			}
		})
	}
}

func TestErrorHandler_WrappedErrorsStillMap(t *testing.T) {
	wrapped := errors.Join(errors.New("rotate session"), domain.ErrTokenReused)
	code, resp := renderError(t, wrapped)
	if code != http.StatusForbidden || resp.Message != "Access forbidden." {
		t.Fatalf("wrapped domain error not mapped: %d %+v", code, resp)
	}
}

func TestErrorHandler_UnexpectedErrorIsGeneric(t *testing.T) {
	code, resp := renderError(t, errors.New("mongo: socket closed"))
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", code)
	}
	if resp.Message != "Internal server error." {
		t.Fatalf("internal details leaked: %+v", resp)
	}
}

func TestErrorHandler_EchoErrorsPassThrough(t *testing.T) {
	code, resp := renderError(t, echo.NewHTTPError(http.StatusTeapot, "short and stout"))
	if code != http.StatusTeapot || resp.Message != "short and stout" {
		t.Fatalf("echo error mishandled: %d %+v", code, resp)
	}
}
