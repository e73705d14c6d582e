package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/storage"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	util.BcryptCost = bcrypt.MinCost
}

type TestServer struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Hub    *ws.Hub
}

func setupIntegrationTest(t *testing.T) *TestServer {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Upload: config.UploadConfig{Dir: t.TempDir(), URLPrefix: "/uploads"},
	}

	images, err := storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.URLPrefix)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)

	repos := repository.NewRepositories(testDB)
	uow := repository.NewUnitOfWork(testDB)

	authService := service.NewAuthService(repos, uow, nil, "test-secret", 15*time.Minute, 7*24*time.Hour)

	rt := router.NewRouter(
		controller.NewAuthController(authService, cfg.Cookie),
		controller.NewUserController(service.NewUserService(repos, uow)),
		controller.NewCartController(service.NewCartService(repos, uow, nil, hub)),
		controller.NewProductController(service.NewProductService(repos, uow, images, hub)),
		controller.NewCategoryController(service.NewCategoryService(repos, uow)),
		controller.NewCommentController(service.NewCommentService(repos)),
		controller.NewStockController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(authService, service.IsUnauthorized),
		cfg,
	)
	rt.ServeUploads(cfg.Upload.Dir)

	return &TestServer{Engine: rt.Setup(), DB: testDB, Hub: hub}
}

func (ts *TestServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (ts *TestServer) registerAndLogin(t *testing.T, username string, isSeller bool) map[string]interface{} {
	w := ts.request(t, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"username":  username,
		"email":     username + "@example.com",
		"password":  "password123",
		"is_seller": isSeller,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)
}

func TestCompleteShoppingJourney(t *testing.T) {
	ts := setupIntegrationTest(t)

	t.Log("Step 1: Register seller and buyer")
	sellerToken := ts.registerAndLogin(t, "seller", true)["access_token"].(string)
	buyerToken := ts.registerAndLogin(t, "buyer", false)["access_token"].(string)

	t.Log("Step 2: Create a category")
	w := ts.request(t, http.MethodPost, "/categories", sellerToken, map[string]string{"name": "Books"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	categoryID := uint(decode(t, w)["id"].(float64))

	t.Log("Step 3: Create a product with an image")
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("name", "Go in Practice"))
	require.NoError(t, mw.WriteField("description", "Paperback"))
	require.NoError(t, mw.WriteField("price", "25.50"))
	require.NoError(t, mw.WriteField("stock", "5"))
	require.NoError(t, mw.WriteField("category_id", fmt.Sprint(categoryID)))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="images"; filename="cover.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("cover-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+sellerToken)
	w = httptest.NewRecorder()
	ts.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	product := decode(t, w)
	productID := uint(product["id"].(float64))
	images := product["images"].([]interface{})
	require.Len(t, images, 1)
	imageURL := images[0].(map[string]interface{})["image_url"].(string)
	assert.True(t, strings.HasPrefix(imageURL, "/uploads/"))

	t.Log("Step 4: Uploaded image is served")
	w = ts.request(t, http.MethodGet, imageURL, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cover-bytes", w.Body.String())

	t.Log("Step 5: Subscribe to the stock feed")
	srv := httptest.NewServer(ts.Engine)
	defer srv.Close()
	feed, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/products/stock/ws", nil)
	require.NoError(t, err)
	defer feed.Close()
	require.Eventually(t, func() bool { return ts.Hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	t.Log("Step 6: Fill the cart")
	w = ts.request(t, http.MethodPost, fmt.Sprintf("/cart/add-product?product_id=%d&quantity=2", productID), buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "51", decode(t, w)["total"])

	t.Log("Step 7: Checkout")
	w = ts.request(t, http.MethodPost, "/cart/checkout", buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Checkout successful", decode(t, w)["message"])

	require.NoError(t, feed.SetReadDeadline(time.Now().Add(2*time.Second)))
	var update ws.StockUpdate
	require.NoError(t, feed.ReadJSON(&update))
	assert.Equal(t, productID, update.ProductID)
	assert.Equal(t, 3, update.Stock)

	w = ts.request(t, http.MethodGet, fmt.Sprintf("/products/%d", productID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["stock"])

	t.Log("Step 8: Comment on the product")
	w = ts.request(t, http.MethodPost, fmt.Sprintf("/products/%d/comments", productID), buyerToken, map[string]string{"text": "Great read"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.request(t, http.MethodGet, fmt.Sprintf("/products/%d/comments", productID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Great read")

	t.Log("Step 9: Category in use cannot be deleted")
	w = ts.request(t, http.MethodDelete, fmt.Sprintf("/categories/%d", categoryID), sellerToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthenticationFlow(t *testing.T) {
	ts := setupIntegrationTest(t)

	tokens := ts.registerAndLogin(t, "alice", false)
	accessToken := tokens["access_token"].(string)
	refreshToken := tokens["refresh_token"].(string)

	w := ts.request(t, http.MethodGet, "/auth/me", accessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password_hash")

	w = ts.request(t, http.MethodPost, "/auth/token?refresh_token="+refreshToken, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decode(t, w)["refresh_token"].(string)
	assert.NotEqual(t, refreshToken, rotated)

	// a consumed refresh token cannot be exchanged again
	w = ts.request(t, http.MethodPost, "/auth/token?refresh_token="+refreshToken, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.request(t, http.MethodPost, "/auth/logout", accessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodPost, "/auth/token?refresh_token="+rotated, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnauthorizedAccess(t *testing.T) {
	ts := setupIntegrationTest(t)
	buyerToken := ts.registerAndLogin(t, "buyer", false)["access_token"].(string)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"cart without token", http.MethodGet, "/cart", "", http.StatusUnauthorized},
		{"checkout without token", http.MethodPost, "/cart/checkout", "", http.StatusUnauthorized},
		{"me with garbage token", http.MethodGet, "/auth/me", "not-a-jwt", http.StatusUnauthorized},
		{"buyer creating category", http.MethodPost, "/categories", buyerToken, http.StatusForbidden},
		{"buyer restocking", http.MethodPost, "/products/1/restock", buyerToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body interface{}
			if tt.method == http.MethodPost && tt.path == "/categories" {
				body = map[string]string{"name": "Nope"}
			}
			w := ts.request(t, tt.method, tt.path, tt.token, body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHealthAndCORS(t *testing.T) {
	ts := setupIntegrationTest(t)

	w := ts.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodOptions, "/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	ts.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
