package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id uint) (*model.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
}

type categoryService struct {
	repos *repository.Repositories
	uow   repository.UnitOfWork
}

func NewCategoryService(repos *repository.Repositories, uow repository.UnitOfWork) CategoryService {
	return &categoryService{repos: repos, uow: uow}
}

func (s *categoryService) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	category := &model.Category{Name: name}

	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		if _, err := r.Categories.FindByName(ctx, name); err == nil {
			return ErrCategoryExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return r.Categories.Create(ctx, category)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Category created", logger.Fields{
		"category_id": category.ID,
		"name":        name,
	})
	return category, nil
}

func (s *categoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repos.Categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	category, err := s.repos.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrCategoryNotFound)
	}
	return category, nil
}

// DeleteCategory refuses to remove a category that products still reference.
func (s *categoryService) DeleteCategory(ctx context.Context, id uint) error {
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		if _, err := r.Categories.FindByID(ctx, id); err != nil {
			return notFoundAs(err, ErrCategoryNotFound)
		}
		count, err := r.Categories.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryInUse
		}
		return r.Categories.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, ErrCategoryInUse) {
			logger.Warn("Category delete rejected: still in use", logger.Fields{
				"category_id": id,
			})
		}
		return err
	}

	logger.Info("Category deleted", logger.Fields{
		"category_id": id,
	})
	return nil
}
