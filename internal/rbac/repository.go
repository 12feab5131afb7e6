package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookapi/book-api/internal/platform/db"
)

// Repository persists roles, permissions and user role assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Sync writes the snapshot in one transaction. Grants missing from the
// snapshot are removed; roles and permissions are upserted.
func (r *Repository) Sync(ctx context.Context, snap Snapshot) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, role := range snap.Roles {
			batch.Queue(`INSERT INTO roles (name, description) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description`, role.Name, role.Description)
		}
		for _, perm := range snap.Permissions {
			batch.Queue(`INSERT INTO permissions (name, description) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description`, perm.Name, perm.Description)
		}
		roles := make([]string, 0, len(snap.Grants))
		perms := make([]string, 0, len(snap.Grants))
		for _, g := range snap.Grants {
			roles = append(roles, g.Role)
			perms = append(perms, g.Permission)
		}
		batch.Queue(`DELETE FROM role_permissions rp
WHERE NOT EXISTS (
    SELECT 1 FROM UNNEST($1::text[], $2::text[]) AS g(role_name, permission_name)
    WHERE g.role_name = rp.role_name AND g.permission_name = rp.permission_name
)`, roles, perms)
		batch.Queue(`INSERT INTO role_permissions (role_name, permission_name)
SELECT * FROM UNNEST($1::text[], $2::text[])
ON CONFLICT DO NOTHING`, roles, perms)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("rbac: sync catalogue: %w", err)
		}
		return nil
	})
}

// ListRoles returns a page of roles ordered by name with their permissions.
func (r *Repository) ListRoles(ctx context.Context, offset, limit int) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT r.name, r.description, r.created_at,
    COALESCE(ARRAY_AGG(rp.permission_name ORDER BY rp.permission_name) FILTER (WHERE rp.permission_name IS NOT NULL), '{}')
FROM roles r
LEFT JOIN role_permissions rp ON rp.role_name = r.name
GROUP BY r.name
ORDER BY r.name
OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	return pgx.CollectRows(rows, scanRole)
}

// CountRoles returns the number of persisted roles.
func (r *Repository) CountRoles(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&total); err != nil {
		return 0, fmt.Errorf("rbac: count roles: %w", err)
	}
	return total, nil
}

// GetRole fetches a role by name.
func (r *Repository) GetRole(ctx context.Context, name string) (Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT r.name, r.description, r.created_at,
    COALESCE(ARRAY_AGG(rp.permission_name ORDER BY rp.permission_name) FILTER (WHERE rp.permission_name IS NOT NULL), '{}')
FROM roles r
LEFT JOIN role_permissions rp ON rp.role_name = r.name
WHERE r.name = $1
GROUP BY r.name`, name)
	if err != nil {
		return Role{}, fmt.Errorf("rbac: get role: %w", err)
	}
	role, err := pgx.CollectExactlyOneRow(rows, scanRole)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrNotFound
	}
	return role, err
}

// ListPermissions returns a page of permissions ordered by name with the
// roles granting them.
func (r *Repository) ListPermissions(ctx context.Context, offset, limit int) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.name, p.description, p.created_at,
    COALESCE(ARRAY_AGG(rp.role_name ORDER BY rp.role_name) FILTER (WHERE rp.role_name IS NOT NULL), '{}')
FROM permissions p
LEFT JOIN role_permissions rp ON rp.permission_name = p.name
GROUP BY p.name
ORDER BY p.name
OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	return pgx.CollectRows(rows, scanPermission)
}

// CountPermissions returns the number of persisted permissions.
func (r *Repository) CountPermissions(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions`).Scan(&total); err != nil {
		return 0, fmt.Errorf("rbac: count permissions: %w", err)
	}
	return total, nil
}

// GetPermission fetches a permission by name.
func (r *Repository) GetPermission(ctx context.Context, name string) (Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.name, p.description, p.created_at,
    COALESCE(ARRAY_AGG(rp.role_name ORDER BY rp.role_name) FILTER (WHERE rp.role_name IS NOT NULL), '{}')
FROM permissions p
LEFT JOIN role_permissions rp ON rp.permission_name = p.name
WHERE p.name = $1
GROUP BY p.name`, name)
	if err != nil {
		return Permission{}, fmt.Errorf("rbac: get permission: %w", err)
	}
	perm, err := pgx.CollectExactlyOneRow(rows, scanPermission)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, ErrNotFound
	}
	return perm, err
}

// UserRoles returns the role names assigned to a user. A missing user yields
// ErrUserNotFound, a user without roles an empty slice.
func (r *Repository) UserRoles(ctx context.Context, userID string) ([]string, error) {
	var names []string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(ARRAY_AGG(ur.role_name ORDER BY ur.role_name) FILTER (WHERE ur.role_name IS NOT NULL), '{}')
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
WHERE u.id = $1
GROUP BY u.id`, userID).Scan(&names)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rbac: user roles: %w", err)
	}
	return names, nil
}

// AssignRole grants a role to a user. Assigning a held role is a no-op.
func (r *Repository) AssignRole(ctx context.Context, userID, role string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_roles (user_id, role_name) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, userID, role)
	if db.IsForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("rbac: assign role: %w", err)
	}
	return nil
}

// RevokeRole removes a role from a user. It reports ErrNotFound when the
// user did not hold the role.
func (r *Repository) RevokeRole(ctx context.Context, userID, role string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_name = $2`, userID, role)
	if err != nil {
		return fmt.Errorf("rbac: revoke role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRole(row pgx.CollectableRow) (Role, error) {
	var role Role
	err := row.Scan(&role.Name, &role.Description, &role.CreatedAt, &role.Permissions)
	return role, err
}

func scanPermission(row pgx.CollectableRow) (Permission, error) {
	var perm Permission
	err := row.Scan(&perm.Name, &perm.Description, &perm.CreatedAt, &perm.Roles)
	return perm, err
}
