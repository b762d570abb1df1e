package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
)

type stubAuthService struct {
	signupFn  func(ctx context.Context, in ports.SignupInput) (*domain.User, error)
	loginFn   func(ctx context.Context, email, password, role, ip string) (*domain.TokenPair, *domain.User, error)
	refreshFn func(ctx context.Context, presented, ip string) (*domain.TokenPair, error)
	logoutFn  func(ctx context.Context, userID string) error
	meFn      func(ctx context.Context, userID string) (*domain.User, error)
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password, role, ip string) (*domain.TokenPair, *domain.User, error) {
	return s.loginFn(ctx, email, password, role, ip)
}

func (s *stubAuthService) Refresh(ctx context.Context, presented, ip string) (*domain.TokenPair, error) {
	return s.refreshFn(ctx, presented, ip)
}

func (s *stubAuthService) Logout(ctx context.Context, userID string) error {
	return s.logoutFn(ctx, userID)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

func (s *stubAuthService) RequestPasswordReset(context.Context, string, string) error { return nil }
func (s *stubAuthService) ConfirmPasswordReset(context.Context, string, string) error { return nil }
func (s *stubAuthService) VerifyEmail(context.Context, string) error                  { return nil }

func newContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestAuthHandler_Signup_Success(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(_ context.Context, in ports.SignupInput) (*domain.User, error) {
			if in.Email != "alice@example.com" || in.Fullname != "Alice" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u-1", Email: in.Email, Role: domain.RoleFreeUser}, nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	c, rec := newContext(http.MethodPost, "/auth/signup",
		`{"fullname":"Alice","email":"alice@example.com","password":"Abc12345!"}`)
	if err := h.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "u-1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Signup_MissingFields(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(context.Context, ports.SignupInput) (*domain.User, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	c, _ := newContext(http.MethodPost, "/auth/signup", `{"email":"not-an-email"}`)
	err := h.Signup(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 validation error, got %v", err)
	}
}

func TestAuthHandler_Signup_DuplicatePropagates(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(context.Context, ports.SignupInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	c, _ := newContext(http.MethodPost, "/auth/signup",
		`{"fullname":"Bob","email":"bob@example.com","password":"Abc12345!"}`)
	if err := h.Signup(c); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Login_SetsRefreshCookie(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password, _, _ string) (*domain.TokenPair, *domain.User, error) {
			if email != "alice@example.com" || password != "Abc12345!" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			pair := &domain.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}
			return pair, &domain.User{ID: "u-1", Email: email, Role: domain.RoleFreeUser, PasswordHash: "hash"}, nil
		},
	}
	h := NewAuthHandler(stub, 7*24*time.Hour, true)

	c, rec := newContext(http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"Abc12345!"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "access-1" {
		t.Fatalf("expected access token, got %v", resp["access_token"])
	}
	if user, ok := resp["user"].(map[string]any); !ok || user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}

	ck := findCookie(rec, refreshCookieName)
	if ck == nil {
		t.Fatalf("refresh cookie not set")
	}
	if ck.Value != "refresh-1" || !ck.HttpOnly || !ck.Secure || ck.Path != refreshCookiePath {
		t.Fatalf("unexpected cookie attributes: %+v", ck)
	}
	if ck.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected SameSite=Strict, got %v", ck.SameSite)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string, string, string) (*domain.TokenPair, *domain.User, error) {
			return nil, nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	c, rec := newContext(http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"wrong-one1!"}`)
	if err := h.Login(c); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if findCookie(rec, refreshCookieName) != nil {
		t.Fatalf("no cookie should be set on failed login")
	}
}

func TestAuthHandler_Refresh_RotatesCookie(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(_ context.Context, presented, _ string) (*domain.TokenPair, error) {
			if presented != "refresh-old" {
				t.Fatalf("unexpected presented token: %s", presented)
			}
			return &domain.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-new"}, nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	c, rec := newContext(http.MethodPost, "/auth/refresh", "")
	c.Request().AddCookie(&http.Cookie{Name: refreshCookieName, Value: "refresh-old"})
	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	ck := findCookie(rec, refreshCookieName)
	if ck == nil || ck.Value != "refresh-new" {
		t.Fatalf("cookie not rotated: %+v", ck)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "access-2" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestAuthHandler_Refresh_MissingCookie(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, time.Hour, false)

	c, _ := newContext(http.MethodPost, "/auth/refresh", "")
	if err := h.Refresh(c); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthHandler_Refresh_ReuseClearsCookie(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(context.Context, string, string) (*domain.TokenPair, error) {
			return nil, domain.ErrTokenReused
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	c, rec := newContext(http.MethodPost, "/auth/refresh", "")
	c.Request().AddCookie(&http.Cookie{Name: refreshCookieName, Value: "refresh-stale"})
	if err := h.Refresh(c); err != domain.ErrTokenReused {
		t.Fatalf("expected ErrTokenReused, got %v", err)
	}

	ck := findCookie(rec, refreshCookieName)
	if ck == nil || ck.Value != "" || ck.MaxAge != -1 {
		t.Fatalf("expected cleared cookie, got %+v", ck)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	var loggedOut string
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, userID string) error {
			loggedOut = userID
			return nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	c, rec := newContext(http.MethodPost, "/auth/logout", "")
	c.Set("identity", domain.Identity{UserID: "u-1", Role: domain.RoleFreeUser})
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if loggedOut != "u-1" {
		t.Fatalf("logout called with %q", loggedOut)
	}
	if ck := findCookie(rec, refreshCookieName); ck == nil || ck.MaxAge != -1 {
		t.Fatalf("expected cleared cookie, got %+v", ck)
	}
}

func TestAuthHandler_Logout_WithoutIdentity(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, time.Hour, false)

	c, _ := newContext(http.MethodPost, "/auth/logout", "")
	if err := h.Logout(c); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthHandler_Me_SanitizesUser(t *testing.T) {
	stub := &stubAuthService{
		meFn: func(_ context.Context, userID string) (*domain.User, error) {
			return &domain.User{
				ID:           userID,
				Email:        "alice@example.com",
				Role:         domain.RoleFreeUser,
				PasswordHash: "hash",
				RefreshToken: "refresh-live",
			}, nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	c, rec := newContext(http.MethodGet, "/auth/me", "")
	c.Set("identity", domain.Identity{UserID: "u-1", Role: domain.RoleFreeUser})
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	body := rec.Body.String()
	if strings.Contains(body, "hash") || strings.Contains(body, "refresh-live") {
		t.Fatalf("credential material leaked: %s", body)
	}
}

func TestAuthHandler_PasswordResetRequest_Always202(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, time.Hour, false)

	c, rec := newContext(http.MethodPost, "/auth/password-reset/request",
		`{"email":"ghost@example.com"}`)
	if err := h.RequestPasswordReset(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}
