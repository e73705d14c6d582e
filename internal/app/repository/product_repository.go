package repository

import (
	"context"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultProductLimit = 10
	MaxProductLimit     = 100
)

type ProductFilter struct {
	Name       string // case-insensitive substring
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	CategoryID *uint
	Limit      int
	Offset     int
}

// Normalize clamps paging values into the accepted range.
func (f *ProductFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultProductLimit
	}
	if f.Limit > MaxProductLimit {
		f.Limit = MaxProductLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Product, error)
	FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, product *model.Product) error
	DecrementStock(ctx context.Context, id uint, quantity int) (bool, error)
	IncrementStock(ctx context.Context, id uint, quantity int) error
	AddImages(ctx context.Context, images []model.ProductImage) error
	DeleteImages(ctx context.Context, productID uint) error
	Delete(ctx context.Context, id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	logger.Debug("Creating product in database", logger.Fields{
		"name":        product.Name,
		"category_id": product.CategoryID,
		"stock":       product.Stock,
	})

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, logger.Fields{
			"name":        product.Name,
			"category_id": product.CategoryID,
		})
		return err
	}

	logger.Debug("Product created in database", logger.Fields{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&product, id).Error
	if err != nil {
		logger.Debug("Product not found by ID", logger.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate reads the product row with a row lock where the dialect supports one.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	filter.Normalize()

	logger.Debug("Finding products with filter", logger.Fields{
		"name":        filter.Name,
		"price_min":   filter.PriceMin,
		"price_max":   filter.PriceMax,
		"category_id": filter.CategoryID,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})

	query := r.db.WithContext(ctx).Model(&model.Product{})
	if name := strings.TrimSpace(filter.Name); name != "" {
		query = query.Where("LOWER(products.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if filter.PriceMin != nil {
		query = query.Where("products.price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		query = query.Where("products.price <= ?", *filter.PriceMax)
	}
	if filter.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filter.CategoryID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	var products []model.Product
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("products.id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find products with filter", err)
		return nil, 0, err
	}

	logger.Debug("Products found with filter", logger.Fields{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	logger.Debug("Updating product in database", logger.Fields{
		"product_id": product.ID,
		"stock":      product.Stock,
	})

	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(product).Error
	if err != nil {
		logger.Error("Failed to update product in database", err, logger.Fields{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

// DecrementStock subtracts quantity only while enough stock remains.
// It reports false when the guard rejected the update.
func (r *productRepository) DecrementStock(ctx context.Context, id uint, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		logger.Error("Failed to decrement product stock", result.Error, logger.Fields{
			"product_id": id,
			"quantity":   quantity,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *productRepository) IncrementStock(ctx context.Context, id uint, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		logger.Error("Failed to increment product stock", result.Error, logger.Fields{
			"product_id": id,
			"quantity":   quantity,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepository) AddImages(ctx context.Context, images []model.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&images).Error; err != nil {
		logger.Error("Failed to create product images", err, logger.Fields{
			"product_id": images[0].ProductID,
			"count":      len(images),
		})
		return err
	}
	return nil
}

func (r *productRepository) DeleteImages(ctx context.Context, productID uint) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.ProductImage{}).Error
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	logger.Debug("Deleting product from database", logger.Fields{
		"product_id": id,
	})

	result := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete product from database", result.Error, logger.Fields{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
