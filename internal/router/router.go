package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	userController     *controller.UserController
	cartController     *controller.CartController
	productController  *controller.ProductController
	categoryController *controller.CategoryController
	commentController  *controller.CommentController
	stockController    *controller.StockController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
	uploadDir          string
}

func NewRouter(
	authController *controller.AuthController,
	userController *controller.UserController,
	cartController *controller.CartController,
	productController *controller.ProductController,
	categoryController *controller.CategoryController,
	commentController *controller.CommentController,
	stockController *controller.StockController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		userController:     userController,
		cartController:     cartController,
		productController:  productController,
		categoryController: categoryController,
		commentController:  commentController,
		stockController:    stockController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

// ServeUploads exposes locally stored images under the configured URL prefix.
func (r *Router) ServeUploads(dir string) {
	r.uploadDir = dir
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORS(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Storefront API is running",
		})
	})

	if r.uploadDir != "" {
		router.Static(r.config.Upload.URLPrefix, r.uploadDir)
	}

	authenticate := r.authMiddleware.Authenticate()
	sellerOnly := r.authMiddleware.RequireSeller()

	auth := router.Group("/auth")
	{
		auth.POST("/register", r.authController.Register)
		auth.POST("/login", r.authController.Login)
		auth.POST("/token", r.authController.Token)
		auth.POST("/logout", authenticate, r.authController.Logout)
		auth.GET("/me", authenticate, r.authController.GetMe)
	}

	users := router.Group("/users")
	{
		users.GET("", r.userController.ListUsers)
		users.GET("/:id", r.userController.GetUser)
		users.PATCH("/:id", authenticate, r.userController.UpdateUser)
		users.DELETE("/:id", authenticate, r.userController.DeleteUser)
	}

	cart := router.Group("/cart")
	cart.Use(authenticate)
	{
		cart.GET("", r.cartController.GetCart)
		cart.DELETE("", r.cartController.DeleteCart)
		cart.POST("/add-product", r.cartController.AddProduct)
		cart.POST("/update-quantity", r.cartController.UpdateQuantity)
		cart.DELETE("/delete-product", r.cartController.DeleteProduct)
		cart.POST("/checkout", r.cartController.Checkout)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", r.categoryController.ListCategories)
		categories.GET("/:id", r.categoryController.GetCategory)
		categories.GET("/:id/products", r.productController.ListCategoryProducts)
		categories.POST("", authenticate, sellerOnly, r.categoryController.CreateCategory)
		categories.DELETE("/:id", authenticate, sellerOnly, r.categoryController.DeleteCategory)
	}

	products := router.Group("/products")
	{
		products.GET("", r.productController.ListProducts)
		products.GET("/stock/ws", r.stockController.StockFeed)
		products.GET("/:id", r.productController.GetProduct)
		products.GET("/:id/comments", r.commentController.ListComments)
		products.POST("/:id/comments", authenticate, r.commentController.CreateComment)

		products.POST("", authenticate, sellerOnly, r.productController.CreateProduct)
		products.PATCH("/:id", authenticate, sellerOnly, r.productController.UpdateProduct)
		products.DELETE("/:id", authenticate, sellerOnly, r.productController.DeleteProduct)
		products.POST("/:id/images", authenticate, sellerOnly, r.productController.AddImages)
		products.POST("/:id/restock", authenticate, sellerOnly, r.productController.Restock)
	}

	return router
}
