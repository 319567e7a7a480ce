package application

import (
	"context"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lumenlabs/profile-service/internal/domain/entity"
	"github.com/lumenlabs/profile-service/internal/domain/repository"
	"github.com/lumenlabs/profile-service/pkg/helpers"
	"github.com/lumenlabs/profile-service/pkg/mailer"
)

// Service wires the profile domain together: record store, asset store,
// auth session cache, search index, and the post-commit notification
// queue. It also owns the per-user edit sessions.
type Service struct {
	Repo            repository.UserRepository
	Assets          repository.AssetStore
	JWT             *helpers.JWTManager
	Redis           *redis.Client
	Logger          *logrus.Logger
	ES              *elasticsearch.Client
	ESProfilesIndex string
	Notify          *helpers.RabbitPublisher

	// CleanupAfterWrite switches the commit protocol to delete the
	// previous avatar only after the write succeeds.
	CleanupAfterWrite bool

	mu       sync.Mutex
	sessions map[string]*EditSession
}

func NewService(repo repository.UserRepository, assets repository.AssetStore, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esIndex string, notify *helpers.RabbitPublisher, cleanupAfterWrite bool) *Service {
	return &Service{
		Repo:              repo,
		Assets:            assets,
		JWT:               jwt,
		Redis:             rdb,
		Logger:            logger,
		ES:                es,
		ESProfilesIndex:   esIndex,
		Notify:            notify,
		CleanupAfterWrite: cleanupAfterWrite,
		sessions:          make(map[string]*EditSession),
	}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Profile returns the canonical record plus its resolved avatar URL. An
// open edit session's cache is reused; otherwise the record is fetched
// fresh and the URL resolved inline, best-effort.
func (s *Service) Profile(ctx context.Context, userID string) (*entity.User, string, error) {
	if sess := s.Session(userID); sess != nil {
		u, ok := sess.Cache().Current()
		if ok {
			return u, sess.Cache().ResolvedAvatarURL(), nil
		}
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", ErrUserNotFound
	}
	url := ""
	if u.Metadata.AvatarAssetID != "" {
		resolved, _, rErr := s.Assets.ResolveURL(ctx, u.Metadata.AvatarAssetID)
		if rErr != nil {
			if s.Logger != nil {
				s.Logger.WithError(rErr).WithField("user_id", userID).Warn("avatar url resolution failed")
			}
		} else {
			url = resolved
		}
	}
	return u, url, nil
}

// OpenSession loads the canonical record and opens an edit session seeded
// from it. An already-open session is returned as is, so page reloads do
// not discard edits.
func (s *Service) OpenSession(ctx context.Context, userID string) (*EditSession, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[userID]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	cache := NewRecordCache(s.Repo, s.Assets, s.Logger)
	if err := cache.Load(ctx, userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess, nil
	}
	sess := newEditSession(context.Background(), userID, cache, s.Repo, s.Assets, s.Logger, s.CleanupAfterWrite)
	s.sessions[userID] = sess
	return sess, nil
}

// Session returns the user's open edit session, or nil.
func (s *Service) Session(userID string) *EditSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

// CloseSession discards the user's edit session. In-flight uploads and
// resolutions are invalidated; their results will be dropped.
func (s *Service) CloseSession(userID string) {
	s.mu.Lock()
	sess := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()
	if sess != nil {
		sess.Close()
	}
}

// CommitProfile runs the session's commit protocol and, on success, fires
// the post-commit side effects: auth session refresh, search re-index,
// and the "profile updated" notification. All side effects are
// best-effort and logged, never surfaced as commit failures.
func (s *Service) CommitProfile(ctx context.Context, userID string) (*entity.User, error) {
	sess := s.Session(userID)
	if sess == nil {
		return nil, ErrNoSession
	}
	u, err := sess.Commit(ctx)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"name":       u.DisplayName,
			"updated_at": nowRFC3339(),
		})
		if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		if _, pErr := pipe.Exec(ctx); pErr != nil && s.Logger != nil {
			s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	_ = s.indexProfile(ctx, u)

	if s.Notify != nil {
		job := mailer.EmailJob{
			To:       u.Email,
			Template: "profile_updated",
			Data: map[string]any{
				"Name":  u.DisplayName,
				"Email": u.Email,
				"Time":  nowRFC3339(),
			},
		}
		if pErr := s.Notify.PublishJSON(ctx, job); pErr != nil && s.Logger != nil {
			s.Logger.WithError(pErr).WithField("user_id", u.ID).Warn("notify publish failed")
		}
	}

	return u, nil
}
