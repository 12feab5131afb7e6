//go:build integration

package rbac

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/platform/db/dbtest"
)

func TestRepositoryRoundTrip(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := NewRepository(pool)

	catalogue, err := authz.DefaultCatalogue()
	require.NoError(t, err)
	svc := NewService(repo, catalogue, nil, nil)
	require.NoError(t, svc.SyncCatalogue(ctx))
	require.NoError(t, svc.SyncCatalogue(ctx))

	total, err := repo.CountPermissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	role, err := repo.GetRole(ctx, "USER")
	require.NoError(t, err)
	assert.Equal(t, []string{"READ_BOOK", "READ_PRODUCT", "READ_USER"}, role.Permissions)

	userID := uuid.NewString()
	_, err = pool.Exec(ctx, `INSERT INTO users (id, email, username, password_hash) VALUES ($1, 'a@b.c', 'abc', 'x')`, userID)
	require.NoError(t, err)

	roles, err := repo.UserRoles(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, roles)

	require.NoError(t, repo.AssignRole(ctx, userID, "ADMIN"))
	require.NoError(t, repo.AssignRole(ctx, userID, "ADMIN"))
	roles, err = repo.UserRoles(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN"}, roles)

	assert.ErrorIs(t, repo.AssignRole(ctx, uuid.NewString(), "ADMIN"), ErrUserNotFound)
	_, err = repo.UserRoles(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, repo.RevokeRole(ctx, userID, "ADMIN"))
	assert.ErrorIs(t, repo.RevokeRole(ctx, userID, "ADMIN"), ErrNotFound)
}
