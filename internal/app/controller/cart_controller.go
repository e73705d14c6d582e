package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

// GetCart returns the user's cart with current product prices
// GET /cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "get cart", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, cart)
}

// AddProduct adds quantity of a product to the cart, creating the cart if needed
// POST /cart/add-product?product_id=&quantity=
func (ctrl *CartController) AddProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := queryUint(c, "product_id")
	if !ok {
		return
	}
	quantity, ok := queryInt(c, "quantity", 1)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.AddProduct(c.Request.Context(), userID, productID, quantity)
	if err != nil {
		respondError(c, err, "add product to cart", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"quantity":   quantity,
		})
		return
	}

	log.Info("Product added to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})
	c.JSON(http.StatusOK, cart)
}

// UpdateQuantity overwrites the quantity of a cart item
// POST /cart/update-quantity?product_id=&quantity=
func (ctrl *CartController) UpdateQuantity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := queryUint(c, "product_id")
	if !ok {
		return
	}
	quantity, ok := queryInt(c, "quantity", 0)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.UpdateQuantity(c.Request.Context(), userID, productID, quantity)
	if err != nil {
		respondError(c, err, "update cart quantity", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"quantity":   quantity,
		})
		return
	}

	c.JSON(http.StatusOK, cart)
}

// DeleteProduct removes one product from the cart; the cart itself stays
// DELETE /cart/delete-product?product_id=
func (ctrl *CartController) DeleteProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := queryUint(c, "product_id")
	if !ok {
		return
	}

	cart, err := ctrl.cartService.DeleteProduct(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err, "delete product from cart", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return
	}

	c.JSON(http.StatusOK, cart)
}

// Checkout decrements stock for every item and removes the cart
// POST /cart/checkout
func (ctrl *CartController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := ctrl.cartService.Checkout(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "checkout", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	log.Info("Checkout completed", map[string]interface{}{
		"user_id": userID,
		"items":   len(result.Items),
		"total":   result.Total.String(),
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout successful",
		"items":   result.Items,
		"total":   result.Total,
	})
}

// DeleteCart drops the whole cart
// DELETE /cart
func (ctrl *CartController) DeleteCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.DeleteCart(c.Request.Context(), userID); err != nil {
		respondError(c, err, "delete cart", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart deleted successfully",
	})
}
