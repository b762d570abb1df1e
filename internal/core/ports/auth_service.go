package ports

import (
	"context"

	"github.com/veriphone/verify-api/internal/core/domain"
)

// SignupInput carries the fields accepted by signup.
type SignupInput struct {
	Fullname string
	Email    string
	Password string
	Role     string
	TenantID string
}

// AuthService implements the credential, session, and rotation flows.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password, role, ip string) (*domain.TokenPair, *domain.User, error)

	// Refresh validates the presented refresh token, rotates it, and returns
	// a fresh pair. A stale (already rotated) token yields
	// domain.ErrTokenReused.
	Refresh(ctx context.Context, presented, ip string) (*domain.TokenPair, error)

	// Logout clears the stored refresh token. Idempotent.
	Logout(ctx context.Context, userID string) error

	Me(ctx context.Context, userID string) (*domain.User, error)

	RequestPasswordReset(ctx context.Context, email, ip string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
}
