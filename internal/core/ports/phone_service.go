package ports

import (
	"context"

	"github.com/veriphone/verify-api/internal/core/domain"
)

// PhoneService validates numbers on behalf of an authenticated identity and
// exposes the caller's validation history.
type PhoneService interface {
	Validate(ctx context.Context, identity domain.Identity, number, region string) (*domain.PhoneValidation, error)
	History(ctx context.Context, identity domain.Identity, limit int64) ([]domain.PhoneValidation, error)
}
