package service

import (
	"context"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

const (
	defaultCommentLimit = 20
	maxCommentLimit     = 100
)

type CommentPage struct {
	Items  []model.Comment `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type CommentService interface {
	AddComment(ctx context.Context, userID, productID uint, text string) (*model.Comment, error)
	ListComments(ctx context.Context, productID uint, limit, offset int) (*CommentPage, error)
}

type commentService struct {
	repos *repository.Repositories
}

func NewCommentService(repos *repository.Repositories) CommentService {
	return &commentService{repos: repos}
}

func (s *commentService) AddComment(ctx context.Context, userID, productID uint, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}
	if _, err := s.repos.Products.FindByID(ctx, productID); err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}

	comment := &model.Comment{
		UserID:    userID,
		ProductID: productID,
		Text:      text,
	}
	if err := s.repos.Comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	logger.Info("Comment added", logger.Fields{
		"comment_id": comment.ID,
		"user_id":    userID,
		"product_id": productID,
	})
	return comment, nil
}

// ListComments returns a product's comments newest first.
func (s *commentService) ListComments(ctx context.Context, productID uint, limit, offset int) (*CommentPage, error) {
	if _, err := s.repos.Products.FindByID(ctx, productID); err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	if limit <= 0 {
		limit = defaultCommentLimit
	}
	if limit > maxCommentLimit {
		limit = maxCommentLimit
	}
	if offset < 0 {
		offset = 0
	}

	comments, total, err := s.repos.Comments.ListByProduct(ctx, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return &CommentPage{Items: comments, Total: total, Limit: limit, Offset: offset}, nil
}
