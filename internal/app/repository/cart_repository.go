package repository

import (
	"context"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	FindByUserID(ctx context.Context, userID uint) (*model.Cart, error)
	Create(ctx context.Context, cart *model.Cart) error
	Delete(ctx context.Context, cartID uint) error
	DeleteByUserID(ctx context.Context, userID uint) error

	ListItems(ctx context.Context, cartID uint) ([]model.CartItem, error)
	FindItem(ctx context.Context, cartID, productID uint) (*model.CartItem, error)
	CreateItem(ctx context.Context, item *model.CartItem) error
	UpdateItem(ctx context.Context, item *model.CartItem) error
	DeleteItem(ctx context.Context, itemID uint) error
	DeleteItemsByProduct(ctx context.Context, productID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindByUserID(ctx context.Context, userID uint) (*model.Cart, error) {
	var cart model.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		logger.Debug("Cart not found by user ID", logger.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) Create(ctx context.Context, cart *model.Cart) error {
	logger.Debug("Creating cart in database", logger.Fields{
		"user_id": cart.UserID,
	})

	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, logger.Fields{
			"user_id": cart.UserID,
		})
		return err
	}
	return nil
}

// Delete removes the cart together with its items.
func (r *cartRepository) Delete(ctx context.Context, cartID uint) error {
	logger.Debug("Deleting cart from database", logger.Fields{
		"cart_id": cartID,
	})

	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items", err, logger.Fields{
			"cart_id": cartID,
		})
		return err
	}

	result := db.Delete(&model.Cart{}, cartID)
	if result.Error != nil {
		logger.Error("Failed to delete cart", result.Error, logger.Fields{
			"cart_id": cartID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByUserID is a no-op when the user has no cart.
func (r *cartRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	err := db.Where("cart_id IN (?)", db.Model(&model.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&model.CartItem{}).Error
	if err != nil {
		logger.Error("Failed to delete cart items by user ID", err, logger.Fields{
			"user_id": userID,
		})
		return err
	}
	return db.Where("user_id = ?", userID).Delete(&model.Cart{}).Error
}

func (r *cartRepository) ListItems(ctx context.Context, cartID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Preload("Product").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to list cart items", err, logger.Fields{
			"cart_id": cartID,
		})
		return nil, err
	}

	logger.Debug("Cart items listed", logger.Fields{
		"cart_id": cartID,
		"count":   len(items),
	})
	return items, nil
}

func (r *cartRepository) FindItem(ctx context.Context, cartID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(ctx context.Context, item *model.CartItem) error {
	logger.Debug("Creating cart item in database", logger.Fields{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	if err := r.db.WithContext(ctx).Omit("Product").Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, logger.Fields{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateItem(ctx context.Context, item *model.CartItem) error {
	logger.Debug("Updating cart item in database", logger.Fields{
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})

	if err := r.db.WithContext(ctx).Omit("Product").Save(item).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, logger.Fields{
			"cart_item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	result := r.db.WithContext(ctx).Delete(&model.CartItem{}, itemID)
	if result.Error != nil {
		logger.Error("Failed to delete cart item from database", result.Error, logger.Fields{
			"cart_item_id": itemID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cartRepository) DeleteItemsByProduct(ctx context.Context, productID uint) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.CartItem{}).Error
}
