package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookapi/book-api/internal/platform/db"
	"github.com/bookapi/book-api/internal/platform/httpx"
)

const userColumns = `u.id::text, u.email, u.username, u.first_name, u.last_name,
    COALESCE(ARRAY_AGG(ur.role_name ORDER BY ur.role_name) FILTER (WHERE ur.role_name IS NOT NULL), '{}'),
    u.created_at, u.updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the user and its role assignments in one transaction.
func (r *Repository) Create(ctx context.Context, u NewUser) (User, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO users (id, email, username, first_name, last_name, password_hash)
VALUES ($1, $2, $3, $4, $5, $6)`, u.ID, u.Email, u.Username, u.FirstName, u.LastName, u.PasswordHash)
		if err != nil {
			return mapWriteError(err)
		}
		if len(u.Roles) == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_name)
SELECT $1::uuid, UNNEST($2::text[]) ON CONFLICT DO NOTHING`, u.ID, u.Roles)
		if err != nil {
			return fmt.Errorf("users: assign roles: %w", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return r.Get(ctx, u.ID)
}

// List returns a page of users ordered by creation time.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+`
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
GROUP BY u.id
ORDER BY u.created_at, u.id
OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// Count returns the number of users.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("users: count: %w", err)
	}
	return total, nil
}

// Get fetches a user with role names.
func (r *Repository) Get(ctx context.Context, id string) (User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+`
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
WHERE u.id = $1
GROUP BY u.id`, id)
	if err != nil {
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	user, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

// Update applies the non-nil changes.
func (r *Repository) Update(ctx context.Context, id string, c Changes) (User, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 6)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	add("email", c.Email)
	add("username", c.Username)
	add("password_hash", c.PasswordHash)
	add("first_name", c.FirstName)
	add("last_name", c.LastName)
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return User{}, mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return User{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a user and returns its username.
func (r *Repository) Delete(ctx context.Context, id string) (string, error) {
	var username string
	err := r.pool.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING username`, id).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("users: delete: %w", err)
	}
	return username, nil
}

func mapWriteError(err error) error {
	if !db.IsUniqueViolation(err) {
		return fmt.Errorf("users: write: %w", err)
	}
	switch db.ConstraintName(err) {
	case "users_email_key":
		return httpx.Errorf(httpx.ErrDuplicate, "A user with this email already exists")
	case "users_username_key":
		return httpx.Errorf(httpx.ErrDuplicate, "A user with this username already exists")
	default:
		return httpx.Errorf(httpx.ErrDuplicate, "User already exists")
	}
}

func scanUser(row pgx.CollectableRow) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.Roles, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
