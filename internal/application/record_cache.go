package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lumenlabs/profile-service/internal/domain/entity"
	"github.com/lumenlabs/profile-service/internal/domain/repository"
)

// RecordCache holds the last-fetched canonical record for one edit session
// and keeps a displayable avatar URL derived from it. The URL is resolved
// asynchronously; each resolution carries a generation so a slow, stale
// resolution never overwrites the URL of a newer avatar reference.
type RecordCache struct {
	repo   repository.UserRepository
	assets repository.AssetStore
	logger *logrus.Logger

	// ctx spans the cache's lifetime, not any single request: URL
	// resolution outlives the request that triggered it and must only
	// stop on supersession or teardown.
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	user        *entity.User
	loadErr     error
	resolvedURL string
	resolveGen  uint64

	// resolving tracks in-flight URL resolutions so tests and shutdown
	// can wait for them to settle.
	resolving sync.WaitGroup
}

func NewRecordCache(repo repository.UserRepository, assets repository.AssetStore, logger *logrus.Logger) *RecordCache {
	ctx, cancel := context.WithCancel(context.Background())
	return &RecordCache{repo: repo, assets: assets, logger: logger, ctx: ctx, cancel: cancel}
}

// Load issues the read query. On success the record is stored and any
// prior error cleared. On failure any previously stored record stays
// untouched and the error is retained.
func (c *RecordCache) Load(ctx context.Context, userID string) error {
	u, err := c.repo.GetByID(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.loadErr = fmt.Errorf("%w: %v", ErrFetch, err)
		return c.loadErr
	}
	c.loadErr = nil
	c.swapLocked(u)
	return nil
}

// Current returns the stored record, or false when nothing has loaded yet.
func (c *RecordCache) Current() (*entity.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user, c.user != nil
}

// Err returns the most recent load error, if the last load failed.
func (c *RecordCache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// ResolvedAvatarURL returns the derived avatar URL, or "" while resolution
// is pending, failed, or the record has no avatar.
func (c *RecordCache) ResolvedAvatarURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolvedURL
}

// Replace atomically swaps the stored record. Called after a successful
// commit with the record the write returned.
func (c *RecordCache) Replace(u *entity.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.swapLocked(u)
}

// Discard invalidates any in-flight resolution and stops the cache for
// good. Called when the session is torn down so late results cannot touch
// shared state.
func (c *RecordCache) Discard() {
	c.mu.Lock()
	c.resolveGen++
	c.mu.Unlock()
	c.cancel()
}

func (c *RecordCache) swapLocked(u *entity.User) {
	prevAsset := ""
	if c.user != nil {
		prevAsset = c.user.Metadata.AvatarAssetID
	}
	c.user = u
	if u.Metadata.AvatarAssetID == prevAsset && c.resolvedURL != "" {
		return // same asset, keep the URL we already have
	}
	c.resolvedURL = ""
	c.resolveGen++
	if u.Metadata.AvatarAssetID == "" {
		return
	}
	c.resolving.Add(1)
	go c.resolve(c.resolveGen, u.Metadata.AvatarAssetID)
}

func (c *RecordCache) resolve(gen uint64, assetID string) {
	defer c.resolving.Done()
	url, _, err := c.assets.ResolveURL(c.ctx, assetID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.resolveGen {
		// A newer avatar reference superseded this resolution.
		return
	}
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("asset_id", assetID).Warn("avatar url resolution failed")
		}
		return
	}
	c.resolvedURL = url
}

// wait blocks until all started resolutions have settled. Test hook.
func (c *RecordCache) wait() {
	c.resolving.Wait()
}
