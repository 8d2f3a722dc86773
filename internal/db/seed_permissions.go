package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/go-seniorcare/internal/models"
)

// SeedPermissions creates the core permissions for the application.
func SeedPermissions(conn *gorm.DB) error {
	permissions := []struct {
		ResourceType string
		Action       string
		Description  string
	}{
		// Superadmin wildcard
		{"*", "*", "Full system access"},
		// Senior users
		{"project.senior_user", "*", "All senior user actions"},
		{"project.senior_user", "list", "List senior users"},
		{"project.senior_user", "view", "View senior user details"},
		{"project.senior_user", "update", "Edit senior users"},
		// Users
		{"project.user", "list", "List users"},
		{"project.user", "view", "View users"},
		// Health plans
		{"project.health_plan", "list", "List health plans"},
		{"project.health_plan", "view", "View health plans"},
	}

	for _, p := range permissions {
		perm := models.Permission{
			ResourceType: p.ResourceType,
			Action:       p.Action,
			Description:  p.Description,
		}
		result := conn.Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
			FirstOrCreate(&perm)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// SeedProfiles creates the default system profiles with their permissions.
func SeedProfiles(conn *gorm.DB) error {
	if err := SeedPermissions(conn); err != nil {
		return err
	}

	profiles := []struct {
		Name        string
		Description string
		Permissions []string // "resource:action" format
	}{
		{
			Name:        "admin",
			Description: "Full system administrator with all permissions",
			Permissions: []string{"*:*"},
		},
		{
			Name:        "care_manager",
			Description: "Edit senior users and browse their references",
			Permissions: []string{
				"project.senior_user:*",
				"project.user:list",
				"project.health_plan:list",
			},
		},
		{
			Name:        "viewer",
			Description: "Read-only access to senior users",
			Permissions: []string{
				"project.senior_user:list",
				"project.senior_user:view",
			},
		},
	}

	for _, p := range profiles {
		var profile models.Profile
		err := conn.Where("name = ?", p.Name).First(&profile).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.Profile{Name: p.Name, Description: p.Description, IsSystem: true}
			if err := conn.Create(&profile).Error; err != nil {
				return err
			}
		}

		var perms []models.Permission
		for _, code := range p.Permissions {
			resource, action, ok := strings.Cut(code, ":")
			if !ok {
				continue
			}
			var perm models.Permission
			if err := conn.Where("resource_type = ? AND action = ?", resource, action).First(&perm).Error; err == nil {
				perms = append(perms, perm)
			}
		}
		if err := conn.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}
