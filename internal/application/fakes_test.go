package application

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumenlabs/profile-service/internal/domain/entity"
	"github.com/lumenlabs/profile-service/internal/domain/repository"
)

// fakeRepo is an in-memory record store. The ops slice records the order
// of store-visible operations so tests can assert protocol ordering.
type fakeRepo struct {
	mu      sync.Mutex
	users   map[string]*entity.User
	writes  int
	ops     *opLog
	failErr error // returned by UpdateProfile when set
	getErr  error // returned by GetByID when set
}

func newFakeRepo(ops *opLog, users ...*entity.User) *fakeRepo {
	r := &fakeRepo{users: make(map[string]*entity.User), ops: ops}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *fakeRepo) UpdateProfile(ctx context.Context, id string, w repository.ProfileWrite) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops.add("write")
	if r.failErr != nil {
		return nil, r.failErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	r.writes++
	u.DisplayName = w.DisplayName
	u.Metadata = w.Metadata
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

var _ repository.UserRepository = (*fakeRepo)(nil)

// fakeAssets is a scriptable asset store. The function fields override the
// default behavior; gates let tests hold a call open to script completion
// order.
type fakeAssets struct {
	mu      sync.Mutex
	ops     *opLog
	deleted []string

	uploadFn  func(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
	resolveFn func(ctx context.Context, assetID string) (string, time.Time, error)
	deleteFn  func(ctx context.Context, assetID string) error
}

func newFakeAssets(ops *opLog) *fakeAssets {
	return &fakeAssets{ops: ops}
}

func (a *fakeAssets) Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	if a.uploadFn != nil {
		return a.uploadFn(ctx, r, filename, contentType)
	}
	return "asset-" + filename, nil
}

func (a *fakeAssets) ResolveURL(ctx context.Context, assetID string) (string, time.Time, error) {
	if a.resolveFn != nil {
		return a.resolveFn(ctx, assetID)
	}
	return "https://assets.example/" + assetID, time.Now().Add(15 * time.Minute), nil
}

func (a *fakeAssets) Delete(ctx context.Context, assetID string) error {
	if a.deleteFn != nil {
		return a.deleteFn(ctx, assetID)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ops.add("delete:" + assetID)
	a.deleted = append(a.deleted, assetID)
	return nil
}

func (a *fakeAssets) deletedIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.deleted...)
}

var _ repository.AssetStore = (*fakeAssets)(nil)

// opLog records the order of store operations across fakes.
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *opLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

func testUser(firstName, lastName, avatarAssetID string) *entity.User {
	return &entity.User{
		ID:          "u1",
		Email:       "ann@example.com",
		DisplayName: entity.DisplayNameFrom(firstName, lastName),
		Metadata: entity.ProfileMetadata{
			FirstName:     firstName,
			LastName:      lastName,
			AvatarAssetID: avatarAssetID,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
