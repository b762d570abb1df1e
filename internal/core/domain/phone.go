package domain

import "time"

// PhoneValidation records one phone-number validation performed for a user.
// Parsing itself is delegated to the phonenumbers library; this is only the
// persisted outcome.
type PhoneValidation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TenantID   string    `json:"tenant_id,omitempty"`
	RawInput   string    `json:"raw_input"`
	E164       string    `json:"e164,omitempty"`
	Country    string    `json:"country,omitempty"`
	NumberType string    `json:"number_type,omitempty"`
	Valid      bool      `json:"valid"`
	CreatedAt  time.Time `json:"created_at"`
}
