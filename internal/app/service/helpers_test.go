package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	util.BcryptCost = bcrypt.MinCost
}

type testEnv struct {
	db    *gorm.DB
	repos *repository.Repositories
	uow   repository.UnitOfWork
}

func setupTestEnv(t *testing.T) *testEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return &testEnv{
		db:    testDB,
		repos: repository.NewRepositories(testDB),
		uow:   repository.NewUnitOfWork(testDB),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createCategory(t *testing.T, name string) *model.Category {
	category := &model.Category{Name: name}
	require.NoError(t, e.db.Create(category).Error)
	return category
}

func (e *testEnv) createProduct(t *testing.T, name, price string, stock int, categoryID uint) *model.Product {
	product := &model.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		CategoryID:  categoryID,
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *testEnv) stockOf(t *testing.T, productID uint) int {
	var product model.Product
	require.NoError(t, e.db.First(&product, productID).Error)
	return product.Stock
}

type recordingNotifier struct {
	mu      sync.Mutex
	updates map[uint]int
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{updates: make(map[uint]int)}
}

func (n *recordingNotifier) BroadcastStock(productID uint, stock int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates[productID] = stock
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.CheckoutEvent
	err    error
}

func (p *recordingPublisher) PublishCheckout(_ context.Context, event events.CheckoutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type memoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{revoked: make(map[string]time.Duration)}
}

func (b *memoryBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = ttl
	return nil
}

func (b *memoryBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.revoked[jti]
	return ok, nil
}

type memoryImageStorage struct {
	uploads []string
}

func (s *memoryImageStorage) Upload(_ context.Context, filename, _ string, body io.Reader, _ int64) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	url := "/uploads/products/" + filename
	s.uploads = append(s.uploads, url)
	return url, nil
}
