package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/mediahub/account-service/internal/pkg/metrics"
	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
)

// ProfileService implements registration, profile reads/updates, and the
// replacement of avatar and cover images against the asset store.
type ProfileService struct {
	users   ports.UserRepository
	assets  ports.AssetStore
	cleaner ports.AssetCleaner
	log     zerolog.Logger
}

// NewProfileService wires a ProfileService. cleaner may be nil, in which case a
// failed deletion is only logged.
func NewProfileService(users ports.UserRepository, assets ports.AssetStore, cleaner ports.AssetCleaner, log zerolog.Logger) *ProfileService {
	return &ProfileService{users: users, assets: assets, cleaner: cleaner, log: log}
}

// Register uploads the avatar (required) and cover image (optional), then
// creates the user. Uploaded assets are released if the record cannot be created.
func (s *ProfileService) Register(ctx context.Context, in ports.RegisterInput) (*domain.PublicUser, error) {
	fullName := strings.TrimSpace(in.FullName)
	username := domain.NormalizeUsername(in.Username)
	email := domain.NormalizeEmail(in.Email)

	if fullName == "" || username == "" || email == "" || in.Password == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "all fields are required")
	}
	if in.Avatar == nil || len(in.Avatar.Data) == 0 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "avatar is required")
	}

	if _, err := s.users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		return nil, domain.Errorf(domain.ErrUserExists, "this username or email is already registered")
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	avatar, err := s.upload(ctx, domain.AssetAvatar, *in.Avatar)
	if err != nil {
		return nil, err
	}

	var cover domain.AssetReference
	if in.CoverImage != nil && len(in.CoverImage.Data) > 0 {
		cover, err = s.upload(ctx, domain.AssetCoverImage, *in.CoverImage)
		if err != nil {
			// The cover image is optional; register without it.
			s.log.Warn().Err(err).Str("username", username).Msg("cover image upload failed")
			cover = domain.AssetReference{}
		}
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatar.URL,
		CoverImage: cover.URL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, in.Password)
	if err != nil {
		s.release(ctx, avatar.Key, "registration aborted")
		s.release(ctx, cover.Key, "registration aborted")
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.Errorf(domain.ErrUserExists, "this username or email is already registered")
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.Inc()
	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")

	pub := created.Public()
	return &pub, nil
}

// CurrentUser returns the sanitized user for an authenticated id.
func (s *ProfileService) CurrentUser(ctx context.Context, userID string) (*domain.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Errorf(domain.ErrUserNotFound, "user does not exist")
		}
		return nil, fmt.Errorf("current user: %w", err)
	}
	pub := user.Public()
	return &pub, nil
}

// UpdateDetails changes the username and/or full name; at least one is required.
func (s *ProfileService) UpdateDetails(ctx context.Context, userID string, in ports.UpdateDetailsInput) (*domain.PublicUser, error) {
	username := domain.NormalizeUsername(in.Username)
	fullName := strings.TrimSpace(in.FullName)
	if username == "" && fullName == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "username or fullName is required")
	}

	var update ports.ProfileUpdate
	if username != "" {
		update.Username = &username
	}
	if fullName != "" {
		update.FullName = &fullName
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return nil, domain.Errorf(domain.ErrUserNotFound, "user does not exist")
		case errors.Is(err, domain.ErrUserExists):
			return nil, domain.Errorf(domain.ErrUserExists, "username is already taken")
		}
		return nil, fmt.Errorf("update details: %w", err)
	}

	pub := user.Public()
	return &pub, nil
}

// ReplaceAsset swaps the avatar or cover image of a user.
//
// Order: upload the new object, persist its URL, then delete the old object.
// The stored reference therefore always points at a live object; a failed
// deletion leaves an orphan that is handed to the cleaner.
func (s *ProfileService) ReplaceAsset(ctx context.Context, userID string, kind domain.AssetKind, upload ports.AssetUpload) (*domain.PublicUser, error) {
	if !kind.Valid() {
		return nil, domain.Errorf(domain.ErrInvalidInput, "unknown asset kind %q", kind)
	}
	if len(upload.Data) == 0 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "%s is required", kind)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Errorf(domain.ErrUserNotFound, "user does not exist")
		}
		return nil, fmt.Errorf("replace %s: %w", kind, err)
	}

	oldURL := user.Avatar
	if kind == domain.AssetCoverImage {
		oldURL = user.CoverImage
	}

	ref, err := s.upload(ctx, kind, upload)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateAssetReference(ctx, user.ID, kind, ref.URL)
	if err != nil {
		s.release(ctx, ref.Key, "persist failed")
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Errorf(domain.ErrUserNotFound, "user does not exist")
		}
		return nil, fmt.Errorf("replace %s: %w", kind, err)
	}

	if oldURL != "" {
		if oldKey, ok := s.assets.KeyFromURL(oldURL); ok && oldKey != ref.Key {
			s.release(ctx, oldKey, "replaced")
		}
	}

	s.log.Info().Str("user_id", user.ID).Str("kind", string(kind)).Str("key", ref.Key).Msg("asset replaced")

	pub := updated.Public()
	return &pub, nil
}

// upload sniffs the content type, rejects anything that is not an image, and
// stores the object.
func (s *ProfileService) upload(ctx context.Context, kind domain.AssetKind, up ports.AssetUpload) (domain.AssetReference, error) {
	mt := mimetype.Detect(up.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return domain.AssetReference{}, domain.Errorf(domain.ErrInvalidInput, "%s must be an image, got %s", kind, mt.String())
	}
	up.ContentType = mt.String()

	ref, err := s.assets.Upload(ctx, kind, up)
	if err != nil {
		if errors.Is(err, domain.ErrUploadFailed) || errors.Is(err, domain.ErrAssetStoreUnavailable) {
			return domain.AssetReference{}, err
		}
		return domain.AssetReference{}, domain.Wrap(domain.ErrUploadFailed, err, fmt.Sprintf("%s upload failed", kind))
	}
	return ref, nil
}

// release deletes an object that is no longer referenced. Failure is never
// surfaced: the key goes to the cleaner for a background retry.
func (s *ProfileService) release(ctx context.Context, key, reason string) {
	if key == "" {
		return
	}
	err := s.assets.Delete(ctx, key)
	if err == nil {
		return
	}
	s.log.Warn().Err(err).Str("key", key).Str("reason", reason).Msg("asset delete failed, scheduling cleanup")
	if s.cleaner != nil {
		s.cleaner.Schedule(ports.AssetCleanupJob{Key: key, Reason: reason})
	}
}
