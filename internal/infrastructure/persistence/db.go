package persistence

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/techappsUT/social-publisher/internal/config"
)

// Connect opens a gorm/postgres connection and auto-migrates the three
// row schemas this layer owns.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("persistence: connect: %w", err)
	}

	if err := db.AutoMigrate(&socialAccountRow{}, &uploadRequestRow{}, &scheduledPostRow{}); err != nil {
		return nil, fmt.Errorf("persistence: migrate: %w", err)
	}

	return db, nil
}
