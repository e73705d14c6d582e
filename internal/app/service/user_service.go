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

const (
	defaultUserLimit = 20
	maxUserLimit     = 100
)

type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
}

type UserPage struct {
	Items  []model.User `json:"items"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context, limit, offset int) (*UserPage, error)
	UpdateProfile(ctx context.Context, actorID, userID uint, input UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, actorID, userID uint) error
}

type userService struct {
	repos *repository.Repositories
	uow   repository.UnitOfWork
}

func NewUserService(repos *repository.Repositories, uow repository.UnitOfWork) UserService {
	return &userService{repos: repos, uow: uow}
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, limit, offset int) (*UserPage, error) {
	if limit <= 0 {
		limit = defaultUserLimit
	}
	if limit > maxUserLimit {
		limit = maxUserLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.repos.Users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return &UserPage{Items: users, Total: total, Limit: limit, Offset: offset}, nil
}

// UpdateProfile lets a user edit only their own profile.
func (s *userService) UpdateProfile(ctx context.Context, actorID, userID uint, input UpdateUserInput) (*model.User, error) {
	if actorID != userID {
		return nil, ErrForbidden
	}

	var user *model.User
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		var err error
		user, err = r.Users.FindByID(ctx, userID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}

		if input.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*input.Email))
			if email != user.Email {
				if _, err := r.Users.FindByEmail(ctx, email); err == nil {
					return ErrEmailAlreadyExists
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				user.Email = email
			}
		}
		if input.FirstName != nil {
			user.FirstName = *input.FirstName
		}
		if input.LastName != nil {
			user.LastName = *input.LastName
		}
		return r.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User profile updated", logger.Fields{
		"user_id": userID,
	})
	return user, nil
}

// DeleteUser removes the user together with their cart, comments and refresh token.
func (s *userService) DeleteUser(ctx context.Context, actorID, userID uint) error {
	if actorID != userID {
		return ErrForbidden
	}

	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		if _, err := r.Users.FindByID(ctx, userID); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		if err := r.Carts.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		if err := r.Comments.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := r.RefreshTokens.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		return r.Users.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	logger.Info("User deleted", logger.Fields{
		"user_id": userID,
	})
	return nil
}
