package ports

import (
	"context"
	"time"

	"github.com/veriphone/verify-api/internal/core/domain"
)

// UserRepository defines user persistence in the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// SetRefreshToken unconditionally stores a new refresh token value,
	// superseding any previous session (login path).
	SetRefreshToken(ctx context.Context, userID, token string) error

	// RotateRefreshToken atomically replaces old with next, conditioned on
	// the stored value still being old. Returns domain.ErrTokenReused when
	// the condition fails, so concurrent rotations have exactly one winner.
	RotateRefreshToken(ctx context.Context, userID, old, next string) error

	// ClearRefreshToken removes the stored value. A no-op when none is set,
	// keeping logout idempotent.
	ClearRefreshToken(ctx context.Context, userID string) error

	SetResetToken(ctx context.Context, userID, token string, expires time.Time) error

	// ResetPassword swaps in the new hash for the user holding a live reset
	// token, clearing the reset token and any stored refresh token.
	ResetPassword(ctx context.Context, token, passwordHash string) error

	// VerifyEmail flags the account holding the verification token.
	VerifyEmail(ctx context.Context, token string) error
}
