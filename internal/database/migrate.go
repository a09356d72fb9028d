package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/models"
)

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Lesson{},
		&models.Module{},
		&models.Assignment{},
		&models.Enrollment{},
		&models.Submission{},
		&models.Certificate{},
		&models.Doubt{},
		&models.DoubtAnswer{},
		&models.VerifierRequest{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
