package repository

import (
	"context"
	"io"
	"time"
)

// AssetStore is the binary object store holding avatar images. Asset IDs
// are opaque handles minted by Upload.
type AssetStore interface {
	// Upload stores the binary and returns the new asset id.
	Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
	// ResolveURL returns a time-limited displayable URL for the asset.
	ResolveURL(ctx context.Context, assetID string) (url string, expiry time.Time, err error)
	// Delete removes the asset. Deleting an id that no longer exists is
	// not an error.
	Delete(ctx context.Context, assetID string) error
}
