package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mukhulaazam/large-req-handling/internal/model"
)

// UserRepository reads user accounts for API-key authentication.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository using the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByAPIKey returns the user owning the given API key, or nil if no
// user matches.
func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, api_key, created_at
		FROM users WHERE api_key = $1`, apiKey).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.APIKey,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user and returns it with ID and CreatedAt set.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, api_key)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		u.Name,
		u.Email,
		u.APIKey,
	).Scan(&u.ID, &u.CreatedAt)
}
