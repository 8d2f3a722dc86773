package db

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/go-seniorcare/internal/models"
)

// DemoPassword is the password given to every seeded demo account.
const DemoPassword = "password"

// SeedDemo inserts operators, health plans and senior users for local use.
// It is a no-op once any senior user exists.
func SeedDemo(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.SeniorUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		operators := map[string]string{
			"admin@seniorcare.local":   "admin",
			"manager@seniorcare.local": "care_manager",
			"viewer@seniorcare.local":  "viewer",
		}
		for email, profileName := range operators {
			var profile models.Profile
			if err := tx.Where("name = ?", profileName).First(&profile).Error; err != nil {
				return fmt.Errorf("profile %s: %w", profileName, err)
			}
			u := models.User{Email: email, Password: string(hash), ProfileID: &profile.ID}
			if err := tx.Where("email = ?", email).FirstOrCreate(&u).Error; err != nil {
				return err
			}
		}

		plans := []models.HealthPlan{
			{Name: "Essentiel", Description: "Basic coverage"},
			{Name: "Confort", Description: "Extended coverage"},
			{Name: "Sérénité", Description: "Full coverage with home care"},
		}
		if err := tx.Create(&plans).Error; err != nil {
			return err
		}

		members := []models.User{
			{Email: "jeanne.martin@example.com", Name: "Jeanne Martin"},
			{Email: "paul.bernard@example.com", Name: "Paul Bernard"},
			{Email: "louise.petit@example.com", Name: "Louise Petit"},
		}
		if err := tx.Create(&members).Error; err != nil {
			return err
		}

		progress := "Initial assessment done"
		seniors := []models.SeniorUser{
			{Progress: &progress, UserID: &members[0].ID, HealthPlanID: &plans[1].ID},
			{UserID: &members[1].ID},
			{},
		}
		return tx.Create(&seniors).Error
	})
}
