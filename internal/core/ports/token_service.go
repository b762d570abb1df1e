package ports

import "github.com/veriphone/verify-api/internal/core/domain"

// TokenService mints and verifies the two token kinds. Verification shares
// one contract: decoded claims or a typed error
// (domain.ErrTokenExpired / domain.ErrTokenInvalid).
type TokenService interface {
	IssueAccessToken(user *domain.User) (string, error)
	IssueRefreshToken(user *domain.User) (string, error)
	VerifyAccessToken(token string) (*domain.AccessClaims, error)
	VerifyRefreshToken(token string) (*domain.RefreshClaims, error)
}
