package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// ImageUpload is one image file received with a product request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  uint
}

// UpdateProductInput is a partial update; nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *uint
}

type ProductPage struct {
	Items  []model.Product `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput, images []ImageUpload) (*model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error)
	UpdateProduct(ctx context.Context, id uint, input UpdateProductInput) (*model.Product, error)
	Restock(ctx context.Context, id uint, delta int) (*model.Product, error)
	AddImages(ctx context.Context, id uint, images []ImageUpload) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type productService struct {
	repos    *repository.Repositories
	uow      repository.UnitOfWork
	images   storage.ImageStorage
	notifier StockNotifier
}

func NewProductService(
	repos *repository.Repositories,
	uow repository.UnitOfWork,
	images storage.ImageStorage,
	notifier StockNotifier,
) ProductService {
	if notifier == nil {
		notifier = nopStockNotifier{}
	}
	return &productService{
		repos:    repos,
		uow:      uow,
		images:   images,
		notifier: notifier,
	}
}

func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput, images []ImageUpload) (*model.Product, error) {
	logger.Info("Creating product", logger.Fields{
		"name":        input.Name,
		"category_id": input.CategoryID,
		"stock":       input.Stock,
		"images":      len(images),
	})

	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrEmptyName
	}
	if input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if input.Stock < 0 {
		return nil, ErrInvalidStock
	}
	if _, err := s.repos.Categories.FindByID(ctx, input.CategoryID); err != nil {
		return nil, notFoundAs(err, ErrCategoryNotFound)
	}

	urls, err := s.uploadImages(ctx, images)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
	}
	err = s.uow.Do(ctx, func(r *repository.Repositories) error {
		if err := r.Products.Create(ctx, product); err != nil {
			return err
		}
		return r.Products.AddImages(ctx, imageRows(product.ID, urls))
	})
	if err != nil {
		logger.Error("Failed to create product", err, logger.Fields{
			"name": input.Name,
		})
		return nil, err
	}

	logger.Info("Product created successfully", logger.Fields{
		"product_id": product.ID,
	})
	return s.GetProduct(ctx, product.ID)
}

func (s *productService) uploadImages(ctx context.Context, images []ImageUpload) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}
	for _, img := range images {
		if err := storage.ValidateImage(img.ContentType, img.Size); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		url, err := s.images.Upload(ctx, img.Filename, img.ContentType, img.Body, img.Size)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func imageRows(productID uint, urls []string) []model.ProductImage {
	rows := make([]model.ProductImage, 0, len(urls))
	for _, url := range urls {
		rows = append(rows, model.ProductImage{ProductID: productID, ImageURL: url})
	}
	return rows
}

func (s *productService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error) {
	filter.Normalize()

	products, total, err := s.repos.Products.FindWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return &ProductPage{
		Items:  products,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, input UpdateProductInput) (*model.Product, error) {
	logger.Info("Updating product", logger.Fields{
		"product_id": id,
	})

	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrEmptyName
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, ErrInvalidStock
	}

	var stockChanged bool
	var product *model.Product
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		var err error
		product, err = r.Products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundAs(err, ErrProductNotFound)
		}

		if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
			if _, err := r.Categories.FindByID(ctx, *input.CategoryID); err != nil {
				return notFoundAs(err, ErrCategoryNotFound)
			}
			product.CategoryID = *input.CategoryID
		}
		if input.Name != nil {
			product.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			product.Description = *input.Description
		}
		if input.Price != nil {
			product.Price = *input.Price
		}
		if input.Stock != nil && *input.Stock != product.Stock {
			product.Stock = *input.Stock
			stockChanged = true
		}
		return r.Products.Update(ctx, product)
	})
	if err != nil {
		if !errors.Is(err, ErrProductNotFound) && !errors.Is(err, ErrCategoryNotFound) {
			logger.Error("Failed to update product", err, logger.Fields{
				"product_id": id,
			})
		}
		return nil, err
	}

	if stockChanged {
		s.notifier.BroadcastStock(product.ID, product.Stock)
	}
	return s.GetProduct(ctx, id)
}

func (s *productService) Restock(ctx context.Context, id uint, delta int) (*model.Product, error) {
	logger.Info("Restocking product", logger.Fields{
		"product_id": id,
		"delta":      delta,
	})

	if delta < 1 {
		return nil, ErrInvalidQuantity
	}

	var stock int
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		if err := r.Products.IncrementStock(ctx, id, delta); err != nil {
			return notFoundAs(err, ErrProductNotFound)
		}
		product, err := r.Products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		stock = product.Stock
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.BroadcastStock(id, stock)
	return s.GetProduct(ctx, id)
}

func (s *productService) AddImages(ctx context.Context, id uint, images []ImageUpload) (*model.Product, error) {
	if _, err := s.repos.Products.FindByID(ctx, id); err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}

	urls, err := s.uploadImages(ctx, images)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Products.AddImages(ctx, imageRows(id, urls)); err != nil {
		return nil, err
	}

	logger.Info("Product images added", logger.Fields{
		"product_id": id,
		"count":      len(urls),
	})
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes the product with its images, comments and cart lines.
func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	logger.Info("Deleting product", logger.Fields{
		"product_id": id,
	})

	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		if _, err := r.Products.FindByIDForUpdate(ctx, id); err != nil {
			return notFoundAs(err, ErrProductNotFound)
		}
		if err := r.Carts.DeleteItemsByProduct(ctx, id); err != nil {
			return err
		}
		if err := r.Comments.DeleteByProduct(ctx, id); err != nil {
			return err
		}
		if err := r.Products.DeleteImages(ctx, id); err != nil {
			return err
		}
		return r.Products.Delete(ctx, id)
	})
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		logger.Error("Failed to delete product", err, logger.Fields{
			"product_id": id,
		})
	}
	return err
}
