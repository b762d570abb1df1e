package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veriphone/verify-api/internal/core/domain"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenService mints and verifies access and refresh JWTs. The two kinds use
// separate secrets so a leaked refresh secret cannot forge access tokens and
// vice versa.
type TokenService struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

type accessTokenClaims struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs the short-lived access token carrying identity
// claims. Secrets are validated at startup, but config drift at runtime must
// still fail loudly rather than sign with an empty key.
func (s *TokenService) IssueAccessToken(user *domain.User) (string, error) {
	if s.accessSecret == "" {
		return "", domain.ErrServerMisconfigured
	}
	now := s.now().UTC()
	claims := accessTokenClaims{
		Role:     user.Role,
		Email:    user.Email,
		TenantID: user.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        tokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.accessSecret))
}

// IssueRefreshToken signs the refresh token. Claims stay minimal (subject
// only) to limit what a stolen token reveals.
func (s *TokenService) IssueRefreshToken(user *domain.User) (string, error) {
	if s.refreshSecret == "" {
		return "", domain.ErrServerMisconfigured
	}
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		ID:        tokenID(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.refreshSecret))
}

// VerifyAccessToken checks signature and expiry against the access secret.
func (s *TokenService) VerifyAccessToken(token string) (*domain.AccessClaims, error) {
	if s.accessSecret == "" {
		return nil, domain.ErrServerMisconfigured
	}
	claims := &accessTokenClaims{}
	if err := s.parse(token, claims, s.accessSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.AccessClaims{
		UserID:    claims.Subject,
		Role:      claims.Role,
		Email:     claims.Email,
		TenantID:  claims.TenantID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyRefreshToken checks signature and expiry against the refresh secret.
func (s *TokenService) VerifyRefreshToken(token string) (*domain.RefreshClaims, error) {
	if s.refreshSecret == "" {
		return nil, domain.ErrServerMisconfigured
	}
	claims := &jwt.RegisteredClaims{}
	if err := s.parse(token, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.RefreshClaims{
		UserID:    claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// tokenID salts each token with a random jti so two tokens minted for the
// same user within one second still differ. Rotation relies on token values
// being unique.
func tokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// parse unifies verification behind one result contract: nil on success,
// ErrTokenExpired past the expiry instant, ErrTokenInvalid for everything
// else. A token presented exactly at its expiry boundary counts as expired.
func (s *TokenService) parse(token string, claims jwt.Claims, secret string) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	switch {
	case err == nil && parsed.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	default:
		return domain.ErrTokenInvalid
	}
}
