package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenlabs/profile-service/internal/domain/entity"
	"github.com/lumenlabs/profile-service/internal/domain/repository"
)

var ErrNotFound = errors.New("not found")

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	meta, err := json.Marshal(u.Metadata)
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.DisplayName, meta)

	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*entity.User, error) {
	u := &entity.User{}
	var meta []byte

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, email, password_hash, display_name, metadata, is_verified, created_at, updated_at
		FROM users
		WHERE %s = $1
	`, column), value)

	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &meta,
		&u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &u.Metadata); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// UpdateProfile writes the display name and metadata in one statement and
// returns the row as persisted, so callers reseed from store truth rather
// than from their own input.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, w repository.ProfileWrite) (*entity.User, error) {
	meta, err := json.Marshal(w.Metadata)
	if err != nil {
		return nil, err
	}

	u := &entity.User{}
	var rawMeta []byte
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET display_name = $1, metadata = $2, updated_at = $3
		WHERE id = $4
		RETURNING id, email, password_hash, display_name, metadata, is_verified, created_at, updated_at
	`, w.DisplayName, meta, time.Now(), id)

	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &rawMeta,
		&u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &u.Metadata); err != nil {
			return nil, err
		}
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
