package ports

import (
	"context"
	"time"

	"github.com/mediahub/account-service/internal/core/domain"
)

// TokenService signs and verifies access and refresh tokens. It has no side effects.
type TokenService interface {
	IssueAccessToken(user *domain.User) (token string, exp time.Time, err error)
	IssueRefreshToken(userID string) (token string, exp time.Time, err error)
	VerifyAccessToken(token string) (domain.AccessClaims, error)
	// VerifyRefreshToken returns the user id carried by a well-formed, unexpired,
	// correctly signed refresh token, or domain.ErrTokenInvalid.
	VerifyRefreshToken(token string) (userID string, err error)
	// HashRefreshToken returns the digest persisted as the session anchor.
	HashRefreshToken(token string) string
}

// TokenDenylist records access tokens revoked before their natural expiry.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
