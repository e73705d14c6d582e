package repository

import (
	"context"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByProduct(ctx context.Context, productID uint, limit, offset int) ([]model.Comment, int64, error)
	DeleteByProduct(ctx context.Context, productID uint) error
	DeleteByUser(ctx context.Context, userID uint) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	logger.Debug("Creating comment in database", logger.Fields{
		"user_id":    comment.UserID,
		"product_id": comment.ProductID,
	})

	if err := r.db.WithContext(ctx).Omit("Product").Create(comment).Error; err != nil {
		logger.Error("Failed to create comment in database", err, logger.Fields{
			"user_id":    comment.UserID,
			"product_id": comment.ProductID,
		})
		return err
	}
	return nil
}

// ListByProduct returns comments newest first.
func (r *commentRepository) ListByProduct(ctx context.Context, productID uint, limit, offset int) ([]model.Comment, int64, error) {
	var (
		comments []model.Comment
		total    int64
	)
	query := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("product_id = ?", productID).
		Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count comments", err, logger.Fields{
			"product_id": productID,
		})
		return nil, 0, err
	}
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		logger.Error("Failed to list comments", err, logger.Fields{
			"product_id": productID,
		})
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *commentRepository) DeleteByProduct(ctx context.Context, productID uint) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.Comment{}).Error
}

func (r *commentRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Comment{}).Error
}
