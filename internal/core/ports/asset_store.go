package ports

import (
	"context"

	"github.com/mediahub/account-service/internal/core/domain"
)

// AssetUpload is a user-supplied file already read into memory and size-capped.
type AssetUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AssetStore is the external object store for avatar and cover images.
type AssetStore interface {
	Upload(ctx context.Context, kind domain.AssetKind, upload AssetUpload) (domain.AssetReference, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL derives the storage key from a stored URL. ok is false when the
	// URL does not point into this store.
	KeyFromURL(url string) (key string, ok bool)
}

// AssetCleaner retries deletions of orphaned assets in the background.
type AssetCleaner interface {
	Schedule(job AssetCleanupJob)
}

// AssetCleanupJob is a single orphaned object awaiting deletion.
type AssetCleanupJob struct {
	Key    string
	Reason string
}
