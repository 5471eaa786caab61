package domain

// AssetKind names the user attribute an uploaded asset is bound to.
type AssetKind string

const (
	AssetAvatar     AssetKind = "avatar"
	AssetCoverImage AssetKind = "cover_image"
)

// Valid reports whether k is a known asset kind.
func (k AssetKind) Valid() bool {
	return k == AssetAvatar || k == AssetCoverImage
}

// AssetReference locates a stored object: URL is what the user record keeps,
// Key is the storage identifier derivable from it.
type AssetReference struct {
	URL         string
	Key         string
	ContentType string
	Size        int64
}
