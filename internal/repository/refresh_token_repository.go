package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/auth-service/internal/domain"
)

// RefreshTokenRepository manages the durable records backing refresh tokens.
// It is the only component touching durable state for tokens.
type RefreshTokenRepository interface {
	// Create inserts a record for the user with a fresh opaque id and an
	// expiry of now+ttl. Single insert, no partial state visible.
	Create(ctx context.Context, userID int64, ttl time.Duration) (*domain.RefreshTokenRecord, error)

	// GetByID looks up a record. A nil record means "not valid", not an error.
	GetByID(ctx context.Context, id string) (*domain.RefreshTokenRecord, error)

	// DeleteByID removes a record. Deleting a non-existent id is not an
	// error; retried logouts and rotation races rely on that.
	DeleteByID(ctx context.Context, id string) error
}

type refreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository returns a Postgres-backed implementation.
func NewRefreshTokenRepository(pool *pgxpool.Pool) RefreshTokenRepository {
	return &refreshTokenRepository{pool: pool}
}

func (r *refreshTokenRepository) Create(ctx context.Context, userID int64, ttl time.Duration) (*domain.RefreshTokenRecord, error) {
	const query = `
        INSERT INTO refresh_tokens (id, user_id, expires_at)
        VALUES ($1, $2, $3)
        RETURNING created_at`

	record := &domain.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.UserID,
		record.ExpiresAt,
	).Scan(&record.CreatedAt); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *refreshTokenRepository) GetByID(ctx context.Context, id string) (*domain.RefreshTokenRecord, error) {
	const query = `
        SELECT id, user_id, expires_at, created_at
        FROM refresh_tokens WHERE id=$1 AND expires_at > NOW()`

	var record domain.RefreshTokenRecord
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.UserID,
		&record.ExpiresAt,
		&record.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *refreshTokenRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM refresh_tokens WHERE id=$1`

	_, err := r.pool.Exec(ctx, query, id)
	return err
}
