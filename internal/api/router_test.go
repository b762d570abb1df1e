package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/veriphone/verify-api/internal/api/middleware"
	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/rbac"
	"github.com/veriphone/verify-api/internal/core/service"
)

// --- In-memory backing stores for full-surface tests ---

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	clone := *user
	clone.ID = fmt.Sprintf("u-%d", r.seq)
	r.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *memUserRepo) SetRefreshToken(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = token
	return nil
}

func (r *memUserRepo) RotateRefreshToken(_ context.Context, userID, old, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.RefreshToken != old {
		return domain.ErrTokenReused
	}
	u.RefreshToken = next
	return nil
}

func (r *memUserRepo) ClearRefreshToken(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.RefreshToken = ""
	}
	return nil
}

func (r *memUserRepo) SetResetToken(_ context.Context, userID, token string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetPasswordToken = token
	u.ResetPasswordExpires = expires
	return nil
}

func (r *memUserRepo) ResetPassword(_ context.Context, token, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetPasswordToken == token && time.Now().Before(u.ResetPasswordExpires) {
			u.PasswordHash = passwordHash
			u.ResetPasswordToken = ""
			u.ResetPasswordExpires = time.Time{}
			u.RefreshToken = ""
			return nil
		}
	}
	return domain.ErrResetTokenInvalid
}

func (r *memUserRepo) VerifyEmail(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.EmailVerificationToken == token {
			u.IsEmailVerified = true
			u.EmailVerificationToken = ""
			return nil
		}
	}
	return domain.ErrVerifyTokenInvalid
}

type memPhoneRepo struct {
	mu      sync.Mutex
	seq     int
	records []domain.PhoneValidation
}

func (r *memPhoneRepo) Insert(_ context.Context, v *domain.PhoneValidation) (*domain.PhoneValidation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	clone := *v
	clone.ID = fmt.Sprintf("pv-%d", r.seq)
	r.records = append(r.records, clone)
	out := clone
	return &out, nil
}

func (r *memPhoneRepo) FindByUser(_ context.Context, userID string, limit int64) ([]domain.PhoneValidation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PhoneValidation
	for i := len(r.records) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.records[i].UserID == userID {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

type memRoleRepo struct {
	mu    sync.Mutex
	roles map[string]domain.Role
}

func newMemRoleRepo() *memRoleRepo {
	r := &memRoleRepo{roles: make(map[string]domain.Role)}
	for _, role := range domain.DefaultRoles() {
		r.roles[role.Name] = role
	}
	return r
}

func (r *memRoleRepo) FindAll(context.Context) ([]domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *memRoleRepo) FindByName(_ context.Context, name string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[name]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &role, nil
}

func (r *memRoleRepo) Seed(_ context.Context, roles []domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range roles {
		if _, exists := r.roles[role.Name]; exists {
			continue
		}
		r.roles[role.Name] = role
	}
	return nil
}

func (r *memRoleRepo) UpdatePermissions(_ context.Context, name string, permissions []string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[name]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	role.Permissions = permissions
	r.roles[name] = role
	return &role, nil
}

type memCounters struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Time
}

func newMemCounters() *memCounters {
	return &memCounters{counts: make(map[string]int64), expires: make(map[string]time.Time)}
}

func (s *memCounters) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if exp, ok := s.expires[key]; !ok || !now.Before(exp) {
		s.counts[key] = 0
		s.expires[key] = now.Add(window)
	}
	s.counts[key]++
	return s.counts[key], s.expires[key].Sub(now), nil
}

type nopMailer struct{}

func (nopMailer) SendEmailVerification(context.Context, string, string) error { return nil }
func (nopMailer) SendPasswordReset(context.Context, string, string) error    { return nil }

type nopSink struct{}

func (nopSink) Record(domain.SecurityEvent) {}

func newTestRouter(loginMax int64) *echo.Echo {
	tokens := service.NewTokenService("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)
	users := newMemUserRepo()
	roles := newMemRoleRepo()
	catalog := rbac.New()
	catalog.Replace(domain.DefaultRoles())

	limiter := middleware.NewRateLimiter(newMemCounters(), 15*time.Minute, map[middleware.RouteClass]middleware.Quota{
		middleware.ClassLogin:         {Window: time.Minute, Max: loginMax},
		middleware.ClassSignup:        {Window: time.Hour, Max: 50},
		middleware.ClassPasswordReset: {Window: time.Hour, Max: 50},
	}, zerolog.Nop())

	return NewRouter(Deps{
		Log:           zerolog.Nop(),
		Auth:          service.NewAuthService(users, tokens, nopMailer{}, nopSink{}, zerolog.Nop()),
		Tokens:        tokens,
		Phones:        service.NewPhoneService(&memPhoneRepo{}, zerolog.Nop()),
		Roles:         roles,
		Catalog:       catalog,
		Limiter:       limiter,
		RefreshTTL:    7 * 24 * time.Hour,
		SecureCookies: false,
	})
}

func do(e *echo.Echo, method, path, body string, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, mod := range mods {
		mod(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
}

func withCookie(name, value string) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v (%s)", err, rec.Body.String())
	}
	return out
}

// Full session lifecycle over the real HTTP surface: signup, a failed login,
// a successful login with cookie, authenticated reads, rotation, and the
// reuse rejection that follows a replay of the superseded token.
func TestRouter_SessionLifecycle(t *testing.T) {
	e := newTestRouter(50)

	rec := do(e, http.MethodPost, "/auth/signup",
		`{"fullname":"Alice Doe","email":"alice@example.com","password":"Abc12345!"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"WrongPass1!"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", rec.Code)
	}
	if msg := decode(t, rec)["message"]; msg != "Invalid credentials." {
		t.Fatalf("bad login message: %v", msg)
	}

	rec = do(e, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"Abc12345!"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	access, _ := decode(t, rec)["access_token"].(string)
	refresh := cookieValue(rec, "refresh_token")
	if access == "" || refresh == "" {
		t.Fatalf("login did not produce a full session")
	}

	rec = do(e, http.MethodGet, "/auth/me", "", withBearer(access))
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if email := decode(t, rec)["email"]; email != "alice@example.com" {
		t.Fatalf("me returned wrong user: %v", email)
	}

	rec = do(e, http.MethodPost, "/auth/refresh", "", withCookie("refresh_token", refresh))
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	rotatedAccess, _ := decode(t, rec)["access_token"].(string)
	rotatedRefresh := cookieValue(rec, "refresh_token")
	if rotatedAccess == "" || rotatedAccess == access {
		t.Fatalf("refresh must mint a new access token")
	}
	if rotatedRefresh == "" || rotatedRefresh == refresh {
		t.Fatalf("refresh must rotate the cookie")
	}

	// Replaying the superseded cookie is the reuse signal.
	rec = do(e, http.MethodPost, "/auth/refresh", "", withCookie("refresh_token", refresh))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("reuse: expected 403, got %d (%s)", rec.Code, rec.Body.String())
	}

	// The rotated session is still healthy.
	rec = do(e, http.MethodGet, "/auth/me", "", withBearer(rotatedAccess))
	if rec.Code != http.StatusOK {
		t.Fatalf("me after rotation: expected 200, got %d", rec.Code)
	}
}

func TestRouter_PermissionBoundaries(t *testing.T) {
	e := newTestRouter(50)

	do(e, http.MethodPost, "/auth/signup",
		`{"fullname":"Bob","email":"bob@example.com","password":"Abc12345!"}`)
	rec := do(e, http.MethodPost, "/auth/login",
		`{"email":"bob@example.com","password":"Abc12345!"}`)
	access, _ := decode(t, rec)["access_token"].(string)

	// FREE_USER holds phonenumber:validate.
	rec = do(e, http.MethodPost, "/phone/validate",
		`{"number":"+14155552671","region":"US"}`, withBearer(access))
	if rec.Code != http.StatusOK {
		t.Fatalf("validate: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if valid := decode(t, rec)["valid"]; valid != true {
		t.Fatalf("known-good number judged invalid")
	}

	rec = do(e, http.MethodGet, "/phone/validations", "", withBearer(access))
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}

	// FREE_USER does not hold manage:roles.
	rec = do(e, http.MethodGet, "/roles", "", withBearer(access))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("roles as free user: expected 403, got %d", rec.Code)
	}

	// No token at all on a guarded route.
	rec = do(e, http.MethodPost, "/phone/validate", `{"number":"+14155552671"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("validate without token: expected 401, got %d", rec.Code)
	}
}

func TestRouter_LoginRateLimited(t *testing.T) {
	e := newTestRouter(3)

	for i := 0; i < 3; i++ {
		rec := do(e, http.MethodPost, "/auth/login",
			`{"email":"ghost@example.com","password":"WrongPass1!"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec := do(e, http.MethodPost, "/auth/login",
		`{"email":"ghost@example.com","password":"WrongPass1!"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after quota, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("429 must carry Retry-After")
	}
	if msg := decode(t, rec)["message"]; msg != "Too many requests, please try again later." {
		t.Fatalf("unexpected 429 message: %v", msg)
	}
}
