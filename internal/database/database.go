// Package database opens the collection store and keeps its schema current.
package database

import (
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/pokemarket/internal/models"
)

// Open connects to dsn and migrates the schema. A postgres:// or
// postgresql:// URL selects PostgreSQL; anything else is a sqlite path or
// sqlite URI.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	slog.Info("database connected", "driver", db.Dialector.Name())

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate brings the schema up to date. It is safe to run repeatedly.
func Migrate(db *gorm.DB) error {
	if err := cleanupDuplicateSnapshots(db); err != nil {
		return fmt.Errorf("cleanup duplicate snapshots: %w", err)
	}
	if err := db.AutoMigrate(&models.Card{}, &models.PriceSnapshot{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		return fmt.Errorf("data migrations: %w", err)
	}
	slog.Info("database migration completed")
	return nil
}

func dialector(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:///"))
}

// Reset drops every table and recreates an empty schema
func Reset(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&models.PriceSnapshot{}, &models.Card{}); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return Migrate(db)
}

// Stats counts the rows of each table
type Stats struct {
	Cards     int64
	Snapshots int64
}

func CountRows(db *gorm.DB) (Stats, error) {
	var s Stats
	if err := db.Model(&models.Card{}).Count(&s.Cards).Error; err != nil {
		return s, fmt.Errorf("count cards: %w", err)
	}
	if err := db.Model(&models.PriceSnapshot{}).Count(&s.Snapshots).Error; err != nil {
		return s, fmt.Errorf("count snapshots: %w", err)
	}
	return s, nil
}
