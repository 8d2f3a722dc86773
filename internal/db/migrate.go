package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/go-seniorcare/internal/models"
)

// Migrate applies the GORM schema for every backend entity.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.Permission{},
		&models.Profile{},
		&models.User{},
		&models.HealthPlan{},
		&models.SeniorUser{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Seed installs the default permissions and profiles.
func Seed(conn *gorm.DB) error {
	return SeedProfiles(conn)
}
