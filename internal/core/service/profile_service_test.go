package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
	"github.com/mediahub/account-service/internal/pkg/password"
)

type profileFixture struct {
	repo    *stubUserRepo
	assets  *stubAssetStore
	cleaner *stubCleaner
	svc     *ProfileService
}

func newProfileFixture() *profileFixture {
	repo := newStubUserRepo()
	assets := newStubAssetStore()
	cleaner := &stubCleaner{}
	return &profileFixture{
		repo:    repo,
		assets:  assets,
		cleaner: cleaner,
		svc:     NewProfileService(repo, assets, cleaner, zerolog.Nop()),
	}
}

func validRegistration() ports.RegisterInput {
	return ports.RegisterInput{
		FullName: "Alice A",
		Username: "Alice",
		Email:    "alice@example.com",
		Password: "pass123",
		Avatar:   &ports.AssetUpload{Filename: "a.png", Data: pngBytes},
	}
}

func (f *profileFixture) register(t *testing.T) *domain.PublicUser {
	t.Helper()
	user, err := f.svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return user
}

func TestProfileService_Register_Success(t *testing.T) {
	f := newProfileFixture()
	in := validRegistration()
	in.CoverImage = &ports.AssetUpload{Filename: "c.png", Data: pngBytes}

	user, err := f.svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected normalized username, got %q", user.Username)
	}
	if user.Avatar == "" || user.CoverImage == "" {
		t.Fatalf("expected both asset URLs, got %+v", user)
	}

	stored, err := f.repo.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed, got %q", stored.PasswordHash)
	}
	if !password.Matches(stored.PasswordHash, "pass123") {
		t.Fatalf("stored hash does not match password")
	}
	if stored.RefreshTokenHash != "" {
		t.Fatalf("a new account must not have a session")
	}
}

func TestProfileService_Register_Validation(t *testing.T) {
	f := newProfileFixture()

	missingField := validRegistration()
	missingField.FullName = "   "
	noAvatar := validRegistration()
	noAvatar.Avatar = nil
	notImage := validRegistration()
	notImage.Avatar = &ports.AssetUpload{Filename: "a.png", Data: []byte("just some text")}

	for name, in := range map[string]ports.RegisterInput{
		"missing field": missingField,
		"no avatar":     noAvatar,
		"not an image":  notImage,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.Register(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
	if len(f.assets.objects) != 0 {
		t.Fatalf("rejected registrations must not upload anything")
	}
}

func TestProfileService_Register_Duplicate(t *testing.T) {
	f := newProfileFixture()
	f.register(t)

	sameUsername := validRegistration()
	sameUsername.Username = "  ALICE "
	sameUsername.Email = "other@example.com"
	if _, err := f.svc.Register(context.Background(), sameUsername); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for username, got %v", err)
	}

	sameEmail := validRegistration()
	sameEmail.Username = "bob"
	sameEmail.Email = "Alice@Example.com"
	if _, err := f.svc.Register(context.Background(), sameEmail); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for email, got %v", err)
	}
}

func TestProfileService_Register_AvatarUploadFails(t *testing.T) {
	f := newProfileFixture()
	f.assets.uploadErr = errBoom

	if _, err := f.svc.Register(context.Background(), validRegistration()); !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if _, err := f.repo.FindByUsernameOrEmail(context.Background(), "alice", ""); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("no user should be created, got %v", err)
	}
}

func TestProfileService_Register_CoverUploadFailureIsTolerated(t *testing.T) {
	f := newProfileFixture()
	f.assets.uploadErr = errBoom
	f.assets.failKind = domain.AssetCoverImage

	in := validRegistration()
	in.CoverImage = &ports.AssetUpload{Filename: "c.png", Data: pngBytes}
	user, err := f.svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Avatar == "" || user.CoverImage != "" {
		t.Fatalf("expected avatar only, got %+v", user)
	}
}

func TestProfileService_CurrentUser(t *testing.T) {
	f := newProfileFixture()
	created := f.register(t)

	got, err := f.svc.CurrentUser(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if got.ID != created.ID || got.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := f.svc.CurrentUser(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestProfileService_UpdateDetails(t *testing.T) {
	f := newProfileFixture()
	alice := f.register(t)

	bob := validRegistration()
	bob.Username = "bob"
	bob.Email = "bob@example.com"
	if _, err := f.svc.Register(context.Background(), bob); err != nil {
		t.Fatalf("Register bob: %v", err)
	}

	ctx := context.Background()
	if _, err := f.svc.UpdateDetails(ctx, alice.ID, ports.UpdateDetailsInput{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.UpdateDetails(ctx, alice.ID, ports.UpdateDetailsInput{Username: "BOB"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	updated, err := f.svc.UpdateDetails(ctx, alice.ID, ports.UpdateDetailsInput{FullName: "Alice Liddell"})
	if err != nil {
		t.Fatalf("UpdateDetails returned error: %v", err)
	}
	if updated.FullName != "Alice Liddell" || updated.Username != "alice" {
		t.Fatalf("unexpected user: %+v", updated)
	}
}

func TestProfileService_ReplaceAsset_Success(t *testing.T) {
	f := newProfileFixture()
	user := f.register(t)
	oldKey, _ := f.assets.KeyFromURL(user.Avatar)

	updated, err := f.svc.ReplaceAsset(context.Background(), user.ID, domain.AssetAvatar, ports.AssetUpload{Filename: "b.png", Data: pngBytes})
	if err != nil {
		t.Fatalf("ReplaceAsset returned error: %v", err)
	}
	if updated.Avatar == user.Avatar {
		t.Fatalf("avatar URL did not change")
	}
	newKey, _ := f.assets.KeyFromURL(updated.Avatar)
	if !f.assets.has(newKey) {
		t.Fatalf("new avatar object is missing")
	}
	if f.assets.has(oldKey) {
		t.Fatalf("old avatar object was not deleted")
	}
	if len(f.cleaner.jobs) != 0 {
		t.Fatalf("no cleanup expected, got %+v", f.cleaner.jobs)
	}
}

func TestProfileService_ReplaceAsset_UploadFailureKeepsOldAsset(t *testing.T) {
	f := newProfileFixture()
	user := f.register(t)
	oldKey, _ := f.assets.KeyFromURL(user.Avatar)
	f.assets.uploadErr = errBoom

	_, err := f.svc.ReplaceAsset(context.Background(), user.ID, domain.AssetAvatar, ports.AssetUpload{Data: pngBytes})
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}

	stored, _ := f.repo.FindByID(context.Background(), user.ID)
	if stored.Avatar != user.Avatar {
		t.Fatalf("avatar reference changed on failed upload")
	}
	if !f.assets.has(oldKey) {
		t.Fatalf("old avatar object must survive a failed upload")
	}
}

func TestProfileService_ReplaceAsset_DeleteFailureSchedulesCleanup(t *testing.T) {
	f := newProfileFixture()
	user := f.register(t)
	oldKey, _ := f.assets.KeyFromURL(user.Avatar)
	f.assets.deleteErr = errBoom

	updated, err := f.svc.ReplaceAsset(context.Background(), user.ID, domain.AssetAvatar, ports.AssetUpload{Data: pngBytes})
	if err != nil {
		t.Fatalf("ReplaceAsset returned error: %v", err)
	}
	if updated.Avatar == user.Avatar {
		t.Fatalf("avatar URL did not change")
	}
	if len(f.cleaner.jobs) != 1 || f.cleaner.jobs[0].Key != oldKey {
		t.Fatalf("expected one cleanup job for %q, got %+v", oldKey, f.cleaner.jobs)
	}
}

func TestProfileService_ReplaceAsset_PersistFailureReleasesNewObject(t *testing.T) {
	f := newProfileFixture()
	user := f.register(t)
	oldKey, _ := f.assets.KeyFromURL(user.Avatar)
	f.repo.assetUpdateErr = errBoom

	if _, err := f.svc.ReplaceAsset(context.Background(), user.ID, domain.AssetAvatar, ports.AssetUpload{Data: pngBytes}); err == nil {
		t.Fatalf("expected an error")
	}
	if !f.assets.has(oldKey) {
		t.Fatalf("old avatar object must survive a failed persist")
	}
	if len(f.assets.objects) != 1 {
		t.Fatalf("the new object should have been released, store holds %d", len(f.assets.objects))
	}
}

func TestProfileService_ReplaceAsset_Validation(t *testing.T) {
	f := newProfileFixture()
	user := f.register(t)
	ctx := context.Background()

	if _, err := f.svc.ReplaceAsset(ctx, user.ID, domain.AssetKind("banner"), ports.AssetUpload{Data: pngBytes}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown kind, got %v", err)
	}
	if _, err := f.svc.ReplaceAsset(ctx, user.ID, domain.AssetCoverImage, ports.AssetUpload{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty upload, got %v", err)
	}
	if _, err := f.svc.ReplaceAsset(ctx, "missing", domain.AssetAvatar, ports.AssetUpload{Data: pngBytes}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
