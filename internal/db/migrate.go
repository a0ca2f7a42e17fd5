package db

import (
	"fmt"

	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
	"gorm.io/gorm"
)

// Migrate applies GORM auto-migrations for all engine models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Contractor{},
		&models.Service{},
		&models.QuoteRequest{},
		&models.Quote{},
		&models.QuoteItem{},
		&models.Invoice{},
		&models.InvoiceItem{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
