package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/diewo77/go-seniorcare/internal/models"
)

func TestSeedProfiles_Idempotent(t *testing.T) {
	conn, err := OpenMemory()
	require.NoError(t, err)

	require.NoError(t, Seed(conn))
	require.NoError(t, Seed(conn))

	var profiles []models.Profile
	require.NoError(t, conn.Preload("Permissions").Order("name").Find(&profiles).Error)
	require.Len(t, profiles, 3)

	byName := map[string][]string{}
	for _, p := range profiles {
		for _, perm := range p.Permissions {
			byName[p.Name] = append(byName[p.Name], perm.Code())
		}
	}
	assert.Equal(t, []string{"*:*"}, byName["admin"])
	assert.Contains(t, byName["care_manager"], "project.senior_user:*")
	assert.NotContains(t, byName["viewer"], "project.senior_user:update")
}

func TestSeedDemo(t *testing.T) {
	conn, err := OpenMemory()
	require.NoError(t, err)
	require.NoError(t, Seed(conn))
	require.NoError(t, SeedDemo(conn))
	require.NoError(t, SeedDemo(conn))

	var count int64
	conn.Model(&models.SeniorUser{}).Count(&count)
	assert.EqualValues(t, 3, count)

	var admin models.User
	require.NoError(t, conn.Where("email = ?", "admin@seniorcare.local").First(&admin).Error)
	require.NotNil(t, admin.ProfileID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(DemoPassword)))
}

func TestSeniorUser_EmptyReferenceStored(t *testing.T) {
	conn, err := OpenMemory()
	require.NoError(t, err)

	empty := ""
	su := models.SeniorUser{UserID: &empty}
	require.NoError(t, conn.Create(&su).Error)

	var got models.SeniorUser
	require.NoError(t, conn.First(&got, "id = ?", su.ID).Error)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "", *got.UserID)
	assert.Nil(t, got.HealthPlanID)
	assert.Nil(t, got.Progress)
}
