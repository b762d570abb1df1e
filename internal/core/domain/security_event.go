package domain

import "time"

// Security event types recorded to the audit collection.
const (
	EventLoginFailed          = "login_failed"
	EventRefreshTokenReuse    = "refresh_token_reuse"
	EventPasswordResetRequest = "password_reset_request"
)

// SecurityEvent is an audit record for authentication anomalies. Refresh
// token reuse is the strongest signal here: it implies a stolen or
// concurrently rotated token.
type SecurityEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Type      string    `json:"type"`
	IP        string    `json:"ip,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
