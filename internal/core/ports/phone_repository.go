package ports

import (
	"context"

	"github.com/veriphone/verify-api/internal/core/domain"
)

// PhoneValidationRepository persists validation outcomes.
type PhoneValidationRepository interface {
	Insert(ctx context.Context, v *domain.PhoneValidation) (*domain.PhoneValidation, error)
	FindByUser(ctx context.Context, userID string, limit int64) ([]domain.PhoneValidation, error)
}
