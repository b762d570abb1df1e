package domain

import "time"

// AccessClaims is the decoded payload of a verified access token.
type AccessClaims struct {
	UserID    string
	Role      string
	Email     string
	TenantID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RefreshClaims is the decoded payload of a verified refresh token. Kept
// minimal so a leaked refresh token reveals nothing beyond the subject.
type RefreshClaims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is the result of a login or a refresh rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
