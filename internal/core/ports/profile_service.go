package ports

import (
	"context"

	"github.com/mediahub/account-service/internal/core/domain"
)

// RegisterInput carries everything needed to create an account.
type RegisterInput struct {
	FullName   string
	Username   string
	Email      string
	Password   string
	Avatar     *AssetUpload
	CoverImage *AssetUpload
}

// UpdateDetailsInput carries profile changes; empty strings mean unchanged.
type UpdateDetailsInput struct {
	Username string
	FullName string
}

// ProfileService manages registration, profile reads/updates and asset replacement.
type ProfileService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.PublicUser, error)
	CurrentUser(ctx context.Context, userID string) (*domain.PublicUser, error)
	UpdateDetails(ctx context.Context, userID string, in UpdateDetailsInput) (*domain.PublicUser, error)
	ReplaceAsset(ctx context.Context, userID string, kind domain.AssetKind, upload AssetUpload) (*domain.PublicUser, error)
}
