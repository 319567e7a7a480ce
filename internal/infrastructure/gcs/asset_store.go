package gcs

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/lumenlabs/profile-service/internal/domain/repository"
)

// AssetStore stores avatar binaries in a GCS bucket. Asset ids are the
// object paths minted at upload time; callers treat them as opaque.
type AssetStore struct {
	client *storage.Client
	bucket string
	urlTTL time.Duration
}

func NewAssetStore(client *storage.Client, bucket string, urlTTL time.Duration) *AssetStore {
	return &AssetStore{client: client, bucket: bucket, urlTTL: urlTTL}
}

func (s *AssetStore) Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	if s.client == nil || s.bucket == "" {
		return "", errors.New("gcs not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := "avatars/" + uuid.NewString() + ext

	wc := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // avatars are small; skip chunked uploads
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return objectPath, nil
}

// ResolveURL returns a V4 signed URL valid for the configured TTL.
func (s *AssetStore) ResolveURL(ctx context.Context, assetID string) (string, time.Time, error) {
	if s.client == nil || s.bucket == "" {
		return "", time.Time{}, errors.New("gcs not configured")
	}
	expiry := time.Now().Add(s.urlTTL)
	url, err := s.client.Bucket(s.bucket).SignedURL(assetID, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: expiry,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return url, expiry, nil
}

// Delete removes the object. A missing object counts as deleted.
func (s *AssetStore) Delete(ctx context.Context, assetID string) error {
	if s.client == nil || s.bucket == "" {
		return errors.New("gcs not configured")
	}
	err := s.client.Bucket(s.bucket).Object(assetID).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

var _ repository.AssetStore = (*AssetStore)(nil)
