package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
)

const resetTokenTTL = time.Hour

// AuthService implements signup, login, refresh rotation, logout, and the
// password-reset and email-verification flows.
type AuthService struct {
	users  ports.UserRepository
	tokens ports.TokenService
	mailer ports.Mailer
	events ports.SecurityEventSink
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenService, mailer ports.Mailer, events ports.SecurityEventSink, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, mailer: mailer, events: events, log: log}
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	fullname := strings.TrimSpace(in.Fullname)
	email := normalizeEmail(in.Email)
	if fullname == "" || email == "" || in.Password == "" {
		return nil, domain.ErrBadRequest
	}
	if err := checkPasswordPolicy(in.Password); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = domain.RoleFreeUser
	}
	// Anonymous is not a signup target; it exists only as the identity of
	// unauthenticated callers.
	if !domain.KnownRole(role) || role == domain.RoleAnonymous {
		return nil, domain.ErrBadRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Fullname:               fullname,
		Email:                  email,
		PasswordHash:           string(hash),
		Role:                   role,
		TenantID:               in.TenantID,
		EmailVerificationToken: randomToken(),
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendEmailVerification(ctx, created.Email, user.EmailVerificationToken); err != nil {
		// The account exists either way; delivery problems must not fail the
		// signup.
		s.log.Warn().Err(err).Str("email", created.Email).Msg("verification mail failed")
	}

	sanitized := created.Sanitized()
	return &sanitized, nil
}

// Login verifies the credential triple and, on success, issues a token pair
// and stores the refresh token as the user's single live session.
func (s *AuthService) Login(ctx context.Context, email, password, role, ip string) (*domain.TokenPair, *domain.User, error) {
	user, err := s.verifyCredentials(ctx, email, password, role)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.events.Record(domain.SecurityEvent{
				Type:      domain.EventLoginFailed,
				IP:        ip,
				Detail:    normalizeEmail(email),
				CreatedAt: time.Now().UTC(),
			})
		}
		return nil, nil, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, nil, err
	}

	sanitized := user.Sanitized()
	return pair, &sanitized, nil
}

// verifyCredentials checks the email/password/claimed-role triple. Every
// failure collapses into ErrInvalidCredentials so responses cannot be used to
// enumerate accounts or roles.
func (s *AuthService) verifyCredentials(ctx context.Context, email, password, claimedRole string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if claimedRole != "" && !domain.KnownRole(claimedRole) {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if claimedRole != "" && claimedRole != user.Role {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Refresh rotates the presented refresh token. The store-level conditional
// update is what guarantees a single winner under concurrent rotation; a
// loser, like a thief replaying a superseded token, lands in the reuse
// branch.
func (s *AuthService) Refresh(ctx context.Context, presented, ip string) (*domain.TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(presented)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Orphaned token: the subject no longer exists.
			return nil, domain.ErrForbidden
		}
		return nil, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, domain.ErrTokenReused) {
			// Stronger signal than ordinary expiry: the token was valid but
			// already superseded. Do not auto-recover the session.
			s.log.Warn().
				Str("event", domain.EventRefreshTokenReuse).
				Str("user_id", user.ID).
				Str("ip", ip).
				Msg("stale refresh token presented")
			s.events.Record(domain.SecurityEvent{
				UserID:    user.ID,
				Type:      domain.EventRefreshTokenReuse,
				IP:        ip,
				CreatedAt: time.Now().UTC(),
			})
		}
		return nil, err
	}

	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return s.users.ClearRefreshToken(ctx, userID)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// RequestPasswordReset always succeeds from the caller's perspective; whether
// the email exists is never revealed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, ip string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token := randomToken()
	if err := s.users.SetResetToken(ctx, user.ID, token, time.Now().UTC().Add(resetTokenTTL)); err != nil {
		return err
	}
	s.events.Record(domain.SecurityEvent{
		UserID:    user.ID,
		Type:      domain.EventPasswordResetRequest,
		IP:        ip,
		CreatedAt: time.Now().UTC(),
	})
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("password reset mail failed")
	}
	return nil
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrResetTokenInvalid
	}
	if err := checkPasswordPolicy(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.ResetPassword(ctx, token, string(hash))
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrVerifyTokenInvalid
	}
	return s.users.VerifyEmail(ctx, token)
}

func (s *AuthService) issuePair(user *domain.User) (*domain.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkPasswordPolicy enforces: at least 8 characters with one upper, one
// lower, one digit, and one non-alphanumeric character.
func checkPasswordPolicy(password string) error {
	if len(password) < 8 {
		return domain.ErrWeakPassword
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return domain.ErrWeakPassword
	}
	return nil
}

func randomToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	return hex.EncodeToString(buf)
}
