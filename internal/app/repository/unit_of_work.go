package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles every repository bound to the same database handle.
type Repositories struct {
	Users         UserRepository
	Categories    CategoryRepository
	Products      ProductRepository
	Carts         CartRepository
	Comments      CommentRepository
	RefreshTokens RefreshTokenRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Categories:    NewCategoryRepository(db),
		Products:      NewProductRepository(db),
		Carts:         NewCartRepository(db),
		Comments:      NewCommentRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
	}
}

// UnitOfWork runs a function inside one database transaction.
// The transaction commits when fn returns nil and rolls back on an error or panic.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos *Repositories) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(repos *Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
