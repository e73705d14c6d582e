package service

import (
	"errors"
	"fmt"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryInUse     = errors.New("category still has products")
	ErrCategoryExists    = errors.New("category already exists")
	ErrEmptyName         = errors.New("name is required")
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidPrice      = errors.New("price must not be negative")
	ErrInvalidStock      = errors.New("stock must not be negative")
	ErrEmptyComment      = errors.New("comment text is required")
	ErrForbidden         = errors.New("forbidden")

	ErrInvalidCredentials    = errors.New("wrong username or password")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrRefreshTokenExpired   = errors.New("refresh token expired")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrEmailAlreadyExists    = errors.New("email already exists")
)

// InsufficientStockError names the product that could not cover the request.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s. available: %d", e.ProductName, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func newInsufficientStock(productID uint, name string, requested, available int) error {
	return &InsufficientStockError{
		ProductID:   productID,
		ProductName: name,
		Requested:   requested,
		Available:   available,
	}
}

// IsUnauthorized reports whether err should surface as an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidRefreshToken) ||
		errors.Is(err, ErrRefreshTokenExpired)
}
