package repository

import (
	"context"

	"github.com/lumenlabs/profile-service/internal/domain/entity"
)

// ProfileWrite is the payload of a profile commit: the derived display name
// plus the full metadata object. Email is never part of a write.
type ProfileWrite struct {
	DisplayName string
	Metadata    entity.ProfileMetadata
}

// UserRepository is the record store client: one read query for the
// canonical record and one write mutation to persist an updated record.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// UpdateProfile persists the write and returns the updated canonical
	// record as the store now holds it.
	UpdateProfile(ctx context.Context, id string, w ProfileWrite) (*entity.User, error)
}
