package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookapi/book-api/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (Credentials, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches login credentials by case-insensitive email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (Credentials, error) {
	var c Credentials
	err := r.pool.QueryRow(ctx, `SELECT id::text, email, password_hash FROM users WHERE LOWER(email) = LOWER($1)`, email).
		Scan(&c.UserID, &c.Email, &c.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credentials{}, shared.ErrNotFound
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("auth: find by email: %w", err)
	}
	return c, nil
}

var _ Repository = (*PGRepository)(nil)
