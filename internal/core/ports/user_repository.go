package ports

import (
	"context"

	"github.com/mediahub/account-service/internal/core/domain"
)

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Username *string
	FullName *string
}

// UserRepository is the credential store. Every mutation is a single-document
// atomic update; no multi-document transactions are assumed.
type UserRepository interface {
	// Create hashes password and inserts the user. Returns domain.ErrUserExists
	// when the username or email is already taken.
	Create(ctx context.Context, user *domain.User, password string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByUsernameOrEmail matches either identifier; empty identifiers are ignored.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	// VerifyPassword compares plaintext against the stored hash in constant time.
	VerifyPassword(user *domain.User, plaintext string) bool
	UpdatePassword(ctx context.Context, id, plaintext string) error

	// SetRefreshToken overwrites the session anchor unconditionally. An empty
	// tokenHash clears it.
	SetRefreshToken(ctx context.Context, id, tokenHash string) error
	// RotateRefreshToken replaces the session anchor only if it still equals
	// expectedHash; otherwise it returns domain.ErrTokenMismatch.
	RotateRefreshToken(ctx context.Context, id, expectedHash, nextHash string) error

	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, error)
	UpdateAssetReference(ctx context.Context, id string, kind domain.AssetKind, url string) (*domain.User, error)
}
