package db

import (
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB auto-migrates every model against db.
func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := model.All()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", logger.Fields{
		"models_count": len(models),
	})
	return nil
}

// Seed adds the default category so a fresh catalog is usable.
func Seed() error {
	var count int64
	if err := DB.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Categories already seeded, skipping...", logger.Fields{
			"existing_count": count,
		})
		return nil
	}

	if err := DB.Create(&model.Category{Name: "General"}).Error; err != nil {
		logger.Error("Failed to seed default category", err)
		return err
	}
	logger.Info("Default category seeded")
	return nil
}
