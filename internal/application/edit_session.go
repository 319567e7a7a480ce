package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lumenlabs/profile-service/internal/domain/entity"
	"github.com/lumenlabs/profile-service/internal/domain/repository"
)

// CommitState is the observable progress of the commit protocol.
type CommitState string

const (
	CommitIdle      CommitState = "idle"
	CommitInFlight  CommitState = "in_flight"
	CommitSucceeded CommitState = "succeeded"
	CommitFailed    CommitState = "failed"
)

// EditSession owns one user's profile draft: it tracks per-field dirtiness
// against the canonical record and runs the commit protocol. There is at
// most one session per user; all mutation goes through the session mutex.
type EditSession struct {
	userID string
	cache  *RecordCache
	repo   repository.UserRepository
	assets repository.AssetStore
	logger *logrus.Logger

	// cleanupAfterWrite delays the best-effort delete of the previous
	// avatar asset until the write has succeeded. Off by default: the
	// original flow deletes first, accepting that a failed write can
	// leave the canonical record pointing at a deleted asset.
	cleanupAfterWrite bool

	// ctx spans the session; Close cancels it so in-flight uploads and
	// resolutions cannot touch the draft afterwards.
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	draft entity.ProfileDraft
	// initialAvatarID is the canonical avatar asset at session init (or
	// after the last successful commit). It is the only asset eligible
	// for deletion at commit time; intermediate pending assets from
	// superseded uploads are never delete candidates.
	initialAvatarID string
	commitState     CommitState

	uploadState UploadState
	uploadErr   error
	uploadGen   uint64
	uploads     sync.WaitGroup
}

func newEditSession(parent context.Context, userID string, cache *RecordCache, repo repository.UserRepository, assets repository.AssetStore, logger *logrus.Logger, cleanupAfterWrite bool) *EditSession {
	ctx, cancel := context.WithCancel(parent)
	s := &EditSession{
		userID:            userID,
		cache:             cache,
		repo:              repo,
		assets:            assets,
		logger:            logger,
		cleanupAfterWrite: cleanupAfterWrite,
		ctx:               ctx,
		cancel:            cancel,
		commitState:       CommitIdle,
		uploadState:       UploadIdle,
	}
	u, _ := cache.Current()
	s.draft = entity.DraftFrom(u)
	if u != nil {
		s.initialAvatarID = u.Metadata.AvatarAssetID
	}
	return s
}

func (s *EditSession) SetFirstName(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.FirstName = v
}

func (s *EditSession) SetLastName(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.LastName = v
}

// Draft returns a copy of the current draft.
func (s *EditSession) Draft() entity.ProfileDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Dirty recomputes the draft's divergence from the canonical record.
func (s *EditSession) Dirty() entity.DirtyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _ := s.cache.Current()
	return s.draft.DirtyAgainst(u)
}

func (s *EditSession) CommitState() CommitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitState
}

// Cache exposes the session's canonical record cache.
func (s *EditSession) Cache() *RecordCache { return s.cache }

// Commit runs the commit protocol:
//
//  1. A clean draft is a no-op (ErrNothingToCommit).
//  2. If the avatar changed and the session started with a canonical
//     asset, that asset is deleted best-effort. The delete is issued and
//     awaited before the write, but its outcome never gates the write.
//  3. The write is submitted with the derived display name and the full
//     draft metadata.
//  4. On success the cache is reseeded with the returned record and the
//     draft reset against it, so dirtiness collapses to false.
//  5. On failure cache and draft stay untouched for retry.
//
// A retried commit re-runs everything including the best-effort delete;
// deleting an already-gone asset counts as success at the store layer.
func (s *EditSession) Commit(ctx context.Context) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	canonical, ok := s.cache.Current()
	if !ok {
		return nil, ErrFetch
	}
	dirty := s.draft.DirtyAgainst(canonical)
	if !dirty.Any {
		return nil, ErrNothingToCommit
	}
	s.commitState = CommitInFlight

	needsCleanup := dirty.Avatar && s.initialAvatarID != "" && s.initialAvatarID != s.draft.PendingAvatarAssetID
	if needsCleanup && !s.cleanupAfterWrite {
		s.deleteAsset(ctx, s.initialAvatarID)
	}

	updated, err := s.repo.UpdateProfile(ctx, canonical.ID, repository.ProfileWrite{
		DisplayName: entity.DisplayNameFrom(s.draft.FirstName, s.draft.LastName),
		Metadata: entity.ProfileMetadata{
			FirstName:     s.draft.FirstName,
			LastName:      s.draft.LastName,
			AvatarAssetID: s.draft.PendingAvatarAssetID,
		},
	})
	if err != nil {
		s.commitState = CommitFailed
		return nil, fmt.Errorf("%w: %v", ErrCommit, err)
	}

	if needsCleanup && s.cleanupAfterWrite {
		s.deleteAsset(ctx, s.initialAvatarID)
	}

	s.cache.Replace(updated)
	pendingURL := s.draft.PendingAvatarURL
	s.draft = entity.DraftFrom(updated)
	if s.draft.PendingAvatarAssetID != "" {
		// The committed asset is the one we just previewed; keep its URL.
		s.draft.PendingAvatarURL = pendingURL
	}
	s.initialAvatarID = updated.Metadata.AvatarAssetID
	s.commitState = CommitSucceeded
	return updated, nil
}

// deleteAsset is best-effort cleanup of an orphaned avatar: failures are
// logged and absorbed, never surfaced as commit failures.
func (s *EditSession) deleteAsset(ctx context.Context, assetID string) {
	if err := s.assets.Delete(ctx, assetID); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":  s.userID,
				"asset_id": assetID,
			}).Warn("avatar cleanup failed")
		}
	}
}

// Close tears the session down: pending uploads and resolutions are
// invalidated so their eventual results are discarded.
func (s *EditSession) Close() {
	s.mu.Lock()
	s.uploadGen++
	s.mu.Unlock()
	s.cache.Discard()
	s.cancel()
}
