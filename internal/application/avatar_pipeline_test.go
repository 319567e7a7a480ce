package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestUploadSuccessPath(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo(nil, testUser("Ann", "Lee", "A1"))
	assets := newFakeAssets(nil)
	sess := newTestSession(t, repo, assets, false)

	sess.SelectFile(bytes.NewReader([]byte("img")), "new", "image/png")
	sess.waitUploads()

	state, err := sess.UploadState()
	if state != UploadReady || err != nil {
		t.Fatalf("UploadState: got %q/%v, want ready/nil", state, err)
	}
	draft := sess.Draft()
	if draft.PendingAvatarAssetID != "asset-new" {
		t.Errorf("PendingAvatarAssetID: got %q, want asset-new", draft.PendingAvatarAssetID)
	}
	if draft.PendingAvatarURL != "https://assets.example/asset-new" {
		t.Errorf("PendingAvatarURL: got %q", draft.PendingAvatarURL)
	}
}

func TestUploadFailureLeavesDraftUnchanged(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo(nil, testUser("Ann", "Lee", "A1"))
	assets := newFakeAssets(nil)
	assets.uploadFn = func(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
		return "", errors.New("network down")
	}
	sess := newTestSession(t, repo, assets, false)

	sess.SelectFile(bytes.NewReader([]byte("img")), "new", "image/png")
	sess.waitUploads()

	state, err := sess.UploadState()
	if state != UploadFailed || !errors.Is(err, ErrUpload) {
		t.Fatalf("UploadState: got %q/%v, want failed/ErrUpload", state, err)
	}
	// Draft retains the prior asset reference; avatar stays clean.
	draft := sess.Draft()
	if draft.PendingAvatarAssetID != "A1" {
		t.Errorf("PendingAvatarAssetID: got %q, want A1", draft.PendingAvatarAssetID)
	}
	if d := sess.Dirty(); d.Avatar {
		t.Errorf("avatar dirty after failed upload: %+v", d)
	}
}

func TestResolutionFailureStillAdoptsAsset(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo(nil, testUser("Ann", "Lee", "A1"))
	assets := newFakeAssets(nil)
	assets.resolveFn = func(ctx context.Context, assetID string) (string, time.Time, error) {
		return "", time.Time{}, errors.New("signing failed")
	}
	sess := newTestSession(t, repo, assets, false)

	sess.SelectFile(bytes.NewReader([]byte("img")), "new", "image/png")
	sess.waitUploads()

	state, err := sess.UploadState()
	if state != UploadFailed || !errors.Is(err, ErrResolution) {
		t.Fatalf("UploadState: got %q/%v, want failed/ErrResolution", state, err)
	}
	// The upload itself succeeded: the id is usable for commit, only the
	// preview URL is missing.
	draft := sess.Draft()
	if draft.PendingAvatarAssetID != "asset-new" {
		t.Errorf("PendingAvatarAssetID: got %q, want asset-new", draft.PendingAvatarAssetID)
	}
	if draft.PendingAvatarURL != "" {
		t.Errorf("PendingAvatarURL: got %q, want empty", draft.PendingAvatarURL)
	}
	if d := sess.Dirty(); !d.Avatar {
		t.Errorf("avatar not dirty after adoption: %+v", d)
	}
}

func TestSupersededUploadDiscardedWhateverOrder(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo(nil, testUser("Ann", "Lee", ""))
	assets := newFakeAssets(nil)

	gate := make(chan struct{})
	assets.resolveFn = func(ctx context.Context, assetID string) (string, time.Time, error) {
		if assetID == "asset-first" {
			<-gate // first attempt stalls in resolution
		}
		return "url-" + assetID, time.Time{}, nil
	}

	sess := newTestSession(t, repo, assets, false)

	sess.SelectFile(bytes.NewReader([]byte("one")), "first", "image/png")
	// Wait until the first attempt is past upload and parked in resolve.
	for {
		if state, _ := sess.UploadState(); state == UploadResolving {
			break
		}
		time.Sleep(time.Millisecond)
	}

	sess.SelectFile(bytes.NewReader([]byte("two")), "second", "image/png")
	close(gate) // let the superseded attempt finish last
	sess.waitUploads()

	draft := sess.Draft()
	if draft.PendingAvatarAssetID != "asset-second" {
		t.Errorf("PendingAvatarAssetID: got %q, want asset-second", draft.PendingAvatarAssetID)
	}
	if draft.PendingAvatarURL != "url-asset-second" {
		t.Errorf("PendingAvatarURL: got %q, want url-asset-second", draft.PendingAvatarURL)
	}
	if state, _ := sess.UploadState(); state != UploadReady {
		t.Errorf("UploadState: got %q, want ready", state)
	}
}

func TestUploadAfterCloseDiscarded(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo(nil, testUser("Ann", "Lee", ""))
	assets := newFakeAssets(nil)

	gate := make(chan struct{})
	assets.uploadFn = func(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
		<-gate
		return "asset-late", nil
	}
	sess := newTestSession(t, repo, assets, false)

	sess.SelectFile(bytes.NewReader([]byte("img")), "late", "image/png")
	sess.Close()
	close(gate)
	sess.waitUploads()

	if draft := sess.Draft(); draft.PendingAvatarAssetID != "" {
		t.Errorf("draft mutated after Close: %+v", draft)
	}
}
