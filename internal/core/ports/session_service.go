package ports

import (
	"context"

	"github.com/mediahub/account-service/internal/core/domain"
)

// LoginInput carries the credentials for a login; one of Username or Email is required.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is the sanitized user plus the freshly issued token pair.
type LoginResult struct {
	User   domain.PublicUser
	Tokens domain.TokenPair
}

// SessionService manages login, logout, refresh rotation and password change.
type SessionService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, claims domain.AccessClaims) error
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}
