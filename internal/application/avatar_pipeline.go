package application

import (
	"fmt"
	"io"
)

// UploadState is the observable state of the avatar replacement pipeline:
// Idle -> Uploading -> Resolving -> Ready on the success path, with Failed
// reachable from Uploading and Resolving.
type UploadState string

const (
	UploadIdle      UploadState = "idle"
	UploadUploading UploadState = "uploading"
	UploadResolving UploadState = "resolving"
	UploadReady     UploadState = "ready"
	UploadFailed    UploadState = "failed"
)

// SelectFile starts one avatar replacement attempt: store the binary,
// resolve a preview URL, adopt the new asset on the draft. The attempt
// runs asynchronously; UploadState reports progress.
//
// Only the newest attempt counts. Calling SelectFile while an attempt is
// in flight supersedes it: the older attempt's results are discarded
// entirely when they arrive, whatever the completion order.
func (s *EditSession) SelectFile(r io.Reader, filename, contentType string) {
	s.mu.Lock()
	s.uploadGen++
	gen := s.uploadGen
	s.uploadState = UploadUploading
	s.uploadErr = nil
	s.mu.Unlock()

	s.uploads.Add(1)
	go s.runUpload(gen, r, filename, contentType)
}

func (s *EditSession) runUpload(gen uint64, r io.Reader, filename, contentType string) {
	defer s.uploads.Done()

	assetID, err := s.assets.Upload(s.ctx, r, filename, contentType)

	s.mu.Lock()
	if gen != s.uploadGen {
		s.mu.Unlock()
		return
	}
	if err != nil {
		// Draft untouched: it retains whatever asset it referenced before.
		s.uploadState = UploadFailed
		s.uploadErr = fmt.Errorf("%w: %v", ErrUpload, err)
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.WithError(err).WithField("user_id", s.userID).Warn("avatar upload failed")
		}
		return
	}
	s.uploadState = UploadResolving
	s.mu.Unlock()

	url, _, err := s.assets.ResolveURL(s.ctx, assetID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.uploadGen {
		// Superseded mid-resolution; even the uploaded asset id must not
		// reach the draft.
		return
	}
	if err != nil {
		// The upload itself succeeded, so the draft adopts the new asset;
		// only the preview is missing.
		s.uploadState = UploadFailed
		s.uploadErr = fmt.Errorf("%w: %v", ErrResolution, err)
		s.draft.PendingAvatarAssetID = assetID
		s.draft.PendingAvatarURL = ""
		if s.logger != nil {
			s.logger.WithError(err).WithField("asset_id", assetID).Warn("avatar url resolution failed")
		}
		return
	}
	s.uploadState = UploadReady
	s.draft.PendingAvatarAssetID = assetID
	s.draft.PendingAvatarURL = url
}

// UploadState returns the pipeline state and, for Failed, the cause.
func (s *EditSession) UploadState() (UploadState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadState, s.uploadErr
}

// waitUploads blocks until started attempts have settled. Test hook.
func (s *EditSession) waitUploads() {
	s.uploads.Wait()
}
