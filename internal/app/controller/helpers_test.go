package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret-for-controllers"

func init() {
	util.BcryptCost = bcrypt.MinCost
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
	auth   service.AuthService
}

// setupTestServer wires every controller against an in-memory database with
// the same routes and middleware the real router uses.
func setupTestServer(t *testing.T) *testServer {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	images, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	repos := repository.NewRepositories(testDB)
	uow := repository.NewUnitOfWork(testDB)

	authService := service.NewAuthService(repos, uow, nil, testJWTSecret, 30*time.Minute, 7*24*time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(authService, service.IsUnauthorized)

	authController := NewAuthController(authService, config.CookieConfig{})
	userController := NewUserController(service.NewUserService(repos, uow))
	cartController := NewCartController(service.NewCartService(repos, uow, nil, nil))
	productController := NewProductController(service.NewProductService(repos, uow, images, nil))
	categoryController := NewCategoryController(service.NewCategoryService(repos, uow))
	commentController := NewCommentController(service.NewCommentService(repos))

	router := gin.New()
	authed := authMiddleware.Authenticate()
	seller := authMiddleware.RequireSeller()

	router.POST("/auth/register", authController.Register)
	router.POST("/auth/login", authController.Login)
	router.POST("/auth/token", authController.Token)
	router.POST("/auth/logout", authed, authController.Logout)
	router.GET("/auth/me", authed, authController.GetMe)

	router.GET("/users", userController.ListUsers)
	router.GET("/users/:id", userController.GetUser)
	router.PATCH("/users/:id", authed, userController.UpdateUser)
	router.DELETE("/users/:id", authed, userController.DeleteUser)

	router.GET("/cart", authed, cartController.GetCart)
	router.DELETE("/cart", authed, cartController.DeleteCart)
	router.POST("/cart/add-product", authed, cartController.AddProduct)
	router.POST("/cart/update-quantity", authed, cartController.UpdateQuantity)
	router.DELETE("/cart/delete-product", authed, cartController.DeleteProduct)
	router.POST("/cart/checkout", authed, cartController.Checkout)

	router.GET("/categories", categoryController.ListCategories)
	router.GET("/categories/:id", categoryController.GetCategory)
	router.GET("/categories/:id/products", productController.ListCategoryProducts)
	router.POST("/categories", authed, seller, categoryController.CreateCategory)
	router.DELETE("/categories/:id", authed, seller, categoryController.DeleteCategory)

	router.GET("/products", productController.ListProducts)
	router.GET("/products/:id", productController.GetProduct)
	router.POST("/products", authed, seller, productController.CreateProduct)
	router.PATCH("/products/:id", authed, seller, productController.UpdateProduct)
	router.DELETE("/products/:id", authed, seller, productController.DeleteProduct)
	router.POST("/products/:id/images", authed, seller, productController.AddImages)
	router.POST("/products/:id/restock", authed, seller, productController.Restock)
	router.GET("/products/:id/comments", commentController.ListComments)
	router.POST("/products/:id/comments", authed, commentController.CreateComment)

	return &testServer{db: testDB, router: router, auth: authService}
}

// createUser registers a user with password "password123" and returns an access token.
func (s *testServer) createUser(t *testing.T, username string, isSeller bool) (*model.User, string) {
	ctx := context.Background()
	user, err := s.auth.Register(ctx, service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		IsSeller: isSeller,
	})
	require.NoError(t, err)

	_, tokens, err := s.auth.Login(ctx, username, "password123")
	require.NoError(t, err)
	return user, tokens.AccessToken
}

func (s *testServer) createCategory(t *testing.T, name string) *model.Category {
	category := &model.Category{Name: name}
	require.NoError(t, s.db.Create(category).Error)
	return category
}

func (s *testServer) createProduct(t *testing.T, name, price string, stock int, categoryID uint) *model.Product {
	product := &model.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		CategoryID:  categoryID,
	}
	require.NoError(t, s.db.Create(product).Error)
	return product
}

func (s *testServer) stockOf(t *testing.T, productID uint) int {
	var product model.Product
	require.NoError(t, s.db.First(&product, productID).Error)
	return product.Stock
}

// do sends a request; a non-nil body is encoded as JSON.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
