package repository

import (
	"context"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	logger.Debug("Creating user in database", logger.Fields{
		"username": user.Username,
		"email":    user.Email,
	})

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, logger.Fields{
			"username": user.Username,
		})
		return err
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		logger.Debug("User not found by ID", logger.Fields{
			"user_id": id,
			"error":   err.Error(),
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		logger.Debug("User not found by username", logger.Fields{
			"username": username,
			"error":    err.Error(),
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]model.User, int64, error) {
	var (
		users []model.User
		total int64
	)
	query := r.db.WithContext(ctx).Model(&model.User{}).Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count users", err)
		return nil, 0, err
	}
	if err := query.Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		logger.Error("Failed to list users", err)
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	logger.Debug("Updating user in database", logger.Fields{
		"user_id": user.ID,
	})

	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		logger.Error("Failed to update user in database", err, logger.Fields{
			"user_id": user.ID,
		})
		return err
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	logger.Debug("Deleting user from database", logger.Fields{
		"user_id": id,
	})

	result := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete user from database", result.Error, logger.Fields{
			"user_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
