package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	"github.com/ikkim/storefront-backend/internal/storage"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/logger"
	pkgredis "github.com/ikkim/storefront-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Storefront Backend Server", logger.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", logger.Fields{
			"error": err.Error(),
		})
	}

	repos := repository.NewRepositories(db.GetDB())
	uow := repository.NewUnitOfWork(db.GetDB())

	// Token blacklist is optional
	var blacklist service.TokenBlacklist
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer func(client *goredis.Client) {
			if err := client.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}(client)
		blacklist = pkgredis.NewTokenBlacklist(client)
	} else {
		logger.Warn("Redis disabled, access tokens stay valid until expiry after logout")
	}

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.CheckoutTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", err)
		}
	}()

	uploadDir, images := newImageStorage(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Initialize services
	authService := service.NewAuthService(
		repos,
		uow,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	userService := service.NewUserService(repos, uow)
	cartService := service.NewCartService(repos, uow, publisher, hub)
	productService := service.NewProductService(repos, uow, images, hub)
	categoryService := service.NewCategoryService(repos, uow)
	commentService := service.NewCommentService(repos)

	// Initialize controllers
	authController := controller.NewAuthController(authService, cfg.Cookie)
	userController := controller.NewUserController(userService)
	cartController := controller.NewCartController(cartService)
	productController := controller.NewProductController(productService)
	categoryController := controller.NewCategoryController(categoryService)
	commentController := controller.NewCommentController(commentService)
	stockController := controller.NewStockController(hub, cfg.CORS.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(authService, service.IsUnauthorized)

	tokenCleanup := scheduler.NewTokenCleanupScheduler(authService, cfg.Scheduler.TokenCleanupSpec)
	if err := tokenCleanup.Start(); err != nil {
		logger.Fatal("Failed to start token cleanup scheduler", err)
	}
	defer tokenCleanup.Stop()

	rt := router.NewRouter(
		authController,
		userController,
		cartController,
		productController,
		categoryController,
		commentController,
		stockController,
		authMiddleware,
		cfg,
	)
	if uploadDir != "" {
		rt.ServeUploads(uploadDir)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           rt.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", logger.Fields{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	cancel()

	logger.Info("Server stopped successfully")
}

// newImageStorage picks S3 when a bucket is configured and local disk otherwise.
// The returned directory is non-empty only for local storage.
func newImageStorage(cfg *config.Config) (string, storage.ImageStorage) {
	if cfg.S3.Bucket != "" {
		logger.Info("Using S3 image storage", logger.Fields{
			"bucket": cfg.S3.Bucket,
			"region": cfg.S3.Region,
		})
		return "", storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
	}

	local, err := storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.URLPrefix)
	if err != nil {
		logger.Fatal("Failed to prepare upload directory", err)
	}
	logger.Info("Using local image storage", logger.Fields{
		"dir": cfg.Upload.Dir,
	})
	return cfg.Upload.Dir, local
}
