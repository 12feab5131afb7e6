//go:build integration

package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookapi/book-api/internal/platform/db/dbtest"
	"github.com/bookapi/book-api/internal/platform/httpx"
)

func TestRepositoryRoundTrip(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := NewRepository(pool)

	userID := uuid.NewString()
	_, err := pool.Exec(ctx, `INSERT INTO users (id, email, username, password_hash) VALUES ($1, 'a@b.c', 'abc', 'x')`, userID)
	require.NoError(t, err)

	p, err := repo.Create(ctx, NewProduct{ID: uuid.NewString(), Name: "Kindle", Description: "E-reader", Price: 129.99, Stock: 3, CreatedBy: userID})
	require.NoError(t, err)
	assert.Equal(t, 129.99, p.Price)
	require.NotNil(t, p.Creator)
	assert.Equal(t, "abc", p.Creator.Username)

	_, err = repo.Create(ctx, NewProduct{ID: uuid.NewString(), Name: "Kindle", Description: "dup", CreatedBy: userID})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)

	_, err = repo.Create(ctx, NewProduct{ID: uuid.NewString(), Name: "Orphan", Description: "x", CreatedBy: uuid.NewString()})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	created, err := repo.CreateMany(ctx, []NewProduct{
		{ID: uuid.NewString(), Name: "A", Description: "a", Price: 1, Stock: 1, CreatedBy: userID},
		{ID: uuid.NewString(), Name: "B", Description: "b", Price: 2, Stock: 2, CreatedBy: userID},
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)

	_, err = repo.CreateMany(ctx, []NewProduct{
		{ID: uuid.NewString(), Name: "C", Description: "c", CreatedBy: userID},
		{ID: uuid.NewString(), Name: "A", Description: "a", CreatedBy: userID},
	})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	page, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	stock := 0
	updated, err := repo.Update(ctx, p.ID, UpdateInput{Stock: &stock})
	require.NoError(t, err)
	assert.Zero(t, updated.Stock)

	_, err = repo.Update(ctx, uuid.NewString(), UpdateInput{Stock: &stock})
	assert.ErrorIs(t, err, ErrNotFound)

	name, err := repo.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kindle", name)

	_, err = repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	require.NoError(t, err)
	orphan, err := repo.Get(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.CreatedBy)
	assert.Nil(t, orphan.Creator)
}
