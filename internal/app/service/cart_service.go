package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockNotifier receives the new stock level of a product after a committed change.
type StockNotifier interface {
	BroadcastStock(productID uint, stock int)
}

type nopStockNotifier struct{}

func (nopStockNotifier) BroadcastStock(uint, int) {}

// CartLine is a cart item resolved against the product's current name and price.
type CartLine struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	ID     uint            `json:"id"`
	UserID uint            `json:"user_id"`
	Items  []CartLine      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

type CheckoutResult struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type CartService interface {
	GetCart(ctx context.Context, userID uint) (*CartView, error)
	AddProduct(ctx context.Context, userID, productID uint, quantity int) (*CartView, error)
	UpdateQuantity(ctx context.Context, userID, productID uint, quantity int) (*CartView, error)
	DeleteProduct(ctx context.Context, userID, productID uint) (*CartView, error)
	Checkout(ctx context.Context, userID uint) (*CheckoutResult, error)
	DeleteCart(ctx context.Context, userID uint) error
}

type cartService struct {
	repos     *repository.Repositories
	uow       repository.UnitOfWork
	publisher events.Publisher
	notifier  StockNotifier
	now       func() time.Time
}

func NewCartService(
	repos *repository.Repositories,
	uow repository.UnitOfWork,
	publisher events.Publisher,
	notifier StockNotifier,
) CartService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if notifier == nil {
		notifier = nopStockNotifier{}
	}
	return &cartService{
		repos:     repos,
		uow:       uow,
		publisher: publisher,
		notifier:  notifier,
		now:       time.Now,
	}
}

// notFoundAs maps gorm's missing-row error onto a domain sentinel.
func notFoundAs(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func (s *cartService) GetCart(ctx context.Context, userID uint) (*CartView, error) {
	logger.Debug("Fetching user cart", logger.Fields{
		"user_id": userID,
	})

	cart, err := s.repos.Carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrCartNotFound)
	}

	items, err := s.repos.Carts.ListItems(ctx, cart.ID)
	if err != nil {
		logger.Error("Failed to fetch cart items", err, logger.Fields{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, err
	}

	view := &CartView{ID: cart.ID, UserID: cart.UserID}
	view.Items, view.Total = resolveLines(items)
	return view, nil
}

// resolveLines prices every item with its product's current price.
func resolveLines(items []model.CartItem) ([]CartLine, decimal.Decimal) {
	lines := make([]CartLine, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		subtotal := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, CartLine{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}
	return lines, total
}

func (s *cartService) AddProduct(ctx context.Context, userID, productID uint, quantity int) (*CartView, error) {
	logger.Info("Adding product to cart", logger.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		product, err := r.Products.FindByID(ctx, productID)
		if err != nil {
			return notFoundAs(err, ErrProductNotFound)
		}
		// Advisory only; stock is settled at checkout.
		if product.Stock < quantity {
			return newInsufficientStock(product.ID, product.Name, quantity, product.Stock)
		}

		cart, err := r.Carts.FindByUserID(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cart = &model.Cart{UserID: userID}
			if err := r.Carts.Create(ctx, cart); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		item, err := r.Carts.FindItem(ctx, cart.ID, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.Carts.CreateItem(ctx, &model.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
			})
		}
		if err != nil {
			return err
		}
		item.Quantity += quantity
		return r.Carts.UpdateItem(ctx, item)
	})
	if err != nil {
		s.logRejected("Cannot add product to cart", err, userID, productID)
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID uint, quantity int) (*CartView, error) {
	logger.Info("Updating cart item quantity", logger.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		cart, err := r.Carts.FindByUserID(ctx, userID)
		if err != nil {
			return notFoundAs(err, ErrCartNotFound)
		}
		item, err := r.Carts.FindItem(ctx, cart.ID, productID)
		if err != nil {
			return notFoundAs(err, ErrCartItemNotFound)
		}
		product, err := r.Products.FindByID(ctx, productID)
		if err != nil {
			return notFoundAs(err, ErrProductNotFound)
		}
		if product.Stock < quantity {
			return newInsufficientStock(product.ID, product.Name, quantity, product.Stock)
		}

		item.Quantity = quantity
		return r.Carts.UpdateItem(ctx, item)
	})
	if err != nil {
		s.logRejected("Cannot update cart item quantity", err, userID, productID)
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

// DeleteProduct keeps the cart even when it becomes empty.
func (s *cartService) DeleteProduct(ctx context.Context, userID, productID uint) (*CartView, error) {
	logger.Info("Removing product from cart", logger.Fields{
		"user_id":    userID,
		"product_id": productID,
	})

	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		cart, err := r.Carts.FindByUserID(ctx, userID)
		if err != nil {
			return notFoundAs(err, ErrCartNotFound)
		}
		item, err := r.Carts.FindItem(ctx, cart.ID, productID)
		if err != nil {
			return notFoundAs(err, ErrCartItemNotFound)
		}
		return notFoundAs(r.Carts.DeleteItem(ctx, item.ID), ErrCartItemNotFound)
	})
	if err != nil {
		s.logRejected("Cannot remove product from cart", err, userID, productID)
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

type stockChange struct {
	productID uint
	stock     int
}

// Checkout consumes stock for every line and removes the cart in one transaction.
// Any missing product or shortfall rolls the whole transaction back.
func (s *cartService) Checkout(ctx context.Context, userID uint) (*CheckoutResult, error) {
	logger.Info("Starting checkout", logger.Fields{
		"user_id": userID,
	})

	var (
		result  CheckoutResult
		changes []stockChange
	)
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		cart, err := r.Carts.FindByUserID(ctx, userID)
		if err != nil {
			return notFoundAs(err, ErrCartNotFound)
		}
		items, err := r.Carts.ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}

		// Lock rows in a stable order so concurrent checkouts cannot deadlock.
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

		result.Total = decimal.Zero
		result.Items = make([]CartLine, 0, len(items))
		changes = changes[:0]
		for _, item := range items {
			product, err := r.Products.FindByIDForUpdate(ctx, item.ProductID)
			if err != nil {
				return notFoundAs(err, ErrProductNotFound)
			}
			if product.Stock < item.Quantity {
				return newInsufficientStock(product.ID, product.Name, item.Quantity, product.Stock)
			}
			ok, err := r.Products.DecrementStock(ctx, product.ID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return newInsufficientStock(product.ID, product.Name, item.Quantity, product.Stock)
			}

			subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			result.Items = append(result.Items, CartLine{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  item.Quantity,
				Subtotal:  subtotal,
			})
			result.Total = result.Total.Add(subtotal)
			changes = append(changes, stockChange{productID: product.ID, stock: product.Stock - item.Quantity})
		}

		return r.Carts.Delete(ctx, cart.ID)
	})
	if err != nil {
		s.logRejected("Checkout failed", err, userID, 0)
		return nil, err
	}

	logger.Info("Checkout completed", logger.Fields{
		"user_id": userID,
		"items":   len(result.Items),
		"total":   result.Total.String(),
	})

	s.afterCheckout(ctx, userID, &result, changes)
	return &result, nil
}

// afterCheckout runs once the transaction committed; failures here are only logged.
func (s *cartService) afterCheckout(ctx context.Context, userID uint, result *CheckoutResult, changes []stockChange) {
	for _, c := range changes {
		s.notifier.BroadcastStock(c.productID, c.stock)
	}
	if len(result.Items) == 0 {
		return
	}

	event := events.CheckoutEvent{
		UserID:     userID,
		Items:      make([]events.CheckoutItem, 0, len(result.Items)),
		Total:      result.Total,
		OccurredAt: s.now().UTC(),
	}
	for _, line := range result.Items {
		event.Items = append(event.Items, events.CheckoutItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
		})
	}
	if err := s.publisher.PublishCheckout(context.WithoutCancel(ctx), event); err != nil {
		logger.Error("Failed to publish checkout event", err, logger.Fields{
			"user_id": userID,
		})
	}
}

func (s *cartService) DeleteCart(ctx context.Context, userID uint) error {
	logger.Info("Deleting cart", logger.Fields{
		"user_id": userID,
	})

	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		cart, err := r.Carts.FindByUserID(ctx, userID)
		if err != nil {
			return notFoundAs(err, ErrCartNotFound)
		}
		return r.Carts.Delete(ctx, cart.ID)
	})
	if err != nil {
		s.logRejected("Cannot delete cart", err, userID, 0)
		return err
	}
	return nil
}

// logRejected logs expected business failures as warnings and everything else as errors.
func (s *cartService) logRejected(msg string, err error, userID, productID uint) {
	fields := logger.Fields{"user_id": userID}
	if productID != 0 {
		fields["product_id"] = productID
	}
	switch {
	case errors.Is(err, ErrCartNotFound),
		errors.Is(err, ErrCartItemNotFound),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidQuantity):
		fields["reason"] = err.Error()
		logger.Warn(msg, fields)
	default:
		logger.Error(msg, err, fields)
	}
}
