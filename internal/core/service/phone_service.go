package service

import (
	"context"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog"

	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
)

const defaultHistoryLimit = 50

// PhoneService validates numbers and keeps per-user history. The parsing
// itself is delegated entirely to the phonenumbers library; an unparseable
// input is a valid request with Valid=false, not an error.
type PhoneService struct {
	validations ports.PhoneValidationRepository
	log         zerolog.Logger
}

func NewPhoneService(validations ports.PhoneValidationRepository, log zerolog.Logger) *PhoneService {
	return &PhoneService{validations: validations, log: log}
}

func (s *PhoneService) Validate(ctx context.Context, identity domain.Identity, number, region string) (*domain.PhoneValidation, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, domain.ErrBadRequest
	}
	if identity.IsAnonymous() {
		return nil, domain.ErrUnauthorized
	}

	record := &domain.PhoneValidation{
		UserID:    identity.UserID,
		TenantID:  identity.TenantID,
		RawInput:  number,
		CreatedAt: time.Now().UTC(),
	}

	parsed, err := phonenumbers.Parse(number, strings.ToUpper(strings.TrimSpace(region)))
	if err == nil && phonenumbers.IsValidNumber(parsed) {
		record.Valid = true
		record.E164 = phonenumbers.Format(parsed, phonenumbers.E164)
		record.Country = phonenumbers.GetRegionCodeForNumber(parsed)
		record.NumberType = numberTypeName(phonenumbers.GetNumberType(parsed))
	}

	return s.validations.Insert(ctx, record)
}

func (s *PhoneService) History(ctx context.Context, identity domain.Identity, limit int64) ([]domain.PhoneValidation, error) {
	if identity.IsAnonymous() {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.validations.FindByUser(ctx, identity.UserID, limit)
}

func numberTypeName(t phonenumbers.PhoneNumberType) string {
	switch t {
	case phonenumbers.FIXED_LINE:
		return "fixed_line"
	case phonenumbers.MOBILE:
		return "mobile"
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return "fixed_line_or_mobile"
	case phonenumbers.TOLL_FREE:
		return "toll_free"
	case phonenumbers.PREMIUM_RATE:
		return "premium_rate"
	case phonenumbers.SHARED_COST:
		return "shared_cost"
	case phonenumbers.VOIP:
		return "voip"
	case phonenumbers.PERSONAL_NUMBER:
		return "personal_number"
	case phonenumbers.PAGER:
		return "pager"
	case phonenumbers.UAN:
		return "uan"
	case phonenumbers.VOICEMAIL:
		return "voicemail"
	default:
		return "unknown"
	}
}
