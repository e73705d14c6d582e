package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewCommentService(env.repos)
	ctx := context.Background()

	user := env.createUser(t, "writer")
	category := env.createCategory(t, "Rings")
	product := env.createProduct(t, "Ring", "10", 1, category.ID)

	_, err := svc.AddComment(ctx, user.ID, product.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	_, err = svc.AddComment(ctx, user.ID, 999, "hello")
	assert.ErrorIs(t, err, ErrProductNotFound)

	first, err := svc.AddComment(ctx, user.ID, product.ID, " first ")
	require.NoError(t, err)
	assert.Equal(t, "first", first.Text)

	_, err = svc.AddComment(ctx, user.ID, product.ID, "second")
	require.NoError(t, err)

	page, err := svc.ListComments(ctx, product.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "second", page.Items[0].Text, "newest first")

	_, err = svc.ListComments(ctx, 999, 10, 0)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
