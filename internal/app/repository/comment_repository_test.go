package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	user := &model.User{Username: "writer", Email: "writer@example.com", PasswordHash: "hash"}
	require.NoError(t, testDB.Create(user).Error)
	category := &model.Category{Name: "Rings"}
	require.NoError(t, testDB.Create(category).Error)
	product := &model.Product{Name: "Ring", Description: "d", Price: decimal.NewFromInt(1), CategoryID: category.ID}
	require.NoError(t, testDB.Create(product).Error)

	repo := NewCommentRepository(testDB)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &model.Comment{
			UserID:    user.ID,
			ProductID: product.ID,
			Text:      text,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	comments, total, err := repo.ListByProduct(ctx, product.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, comments, 2)
	assert.Equal(t, "third", comments[0].Text)
	assert.Equal(t, "second", comments[1].Text)

	comments, _, err = repo.ListByProduct(ctx, product.ID, 10, 2)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "first", comments[0].Text)

	require.NoError(t, repo.DeleteByUser(ctx, user.ID))
	_, total, err = repo.ListByProduct(ctx, product.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}
