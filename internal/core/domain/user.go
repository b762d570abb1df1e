package domain

import "time"

// User models an account in the credential store. PasswordHash and the token
// fields never leave the backend.
type User struct {
	ID              string    `json:"id"`
	Fullname        string    `json:"fullname"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"is_email_verified"`
	TenantID        string    `json:"tenant_id,omitempty"`

	// RefreshToken holds the single live refresh token value. Rotation
	// overwrites it; any other value presented at refresh is a reuse signal.
	RefreshToken string `json:"-"`

	EmailVerificationToken string    `json:"-"`
	ResetPasswordToken     string    `json:"-"`
	ResetPasswordExpires   time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sanitized returns a copy with credential material blanked, safe to hand to
// handlers and logs.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	u.EmailVerificationToken = ""
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = time.Time{}
	return u
}

// Identity is the resolved caller of a request, produced by the auth
// middleware from a verified access token.
type Identity struct {
	UserID   string `json:"user_id,omitempty"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

// Anonymous is the identity assigned when no (valid) access token is present
// on routes that accept unauthenticated callers.
func Anonymous() Identity {
	return Identity{Role: RoleAnonymous}
}

// IsAnonymous reports whether the identity carries no authenticated subject.
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}
