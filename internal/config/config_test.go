package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 2, cfg.Cache.DedupeSeconds)
	assert.Equal(t, 10*time.Second, cfg.API.APITimeout())
	assert.True(t, cfg.App.Dev)
	assert.Equal(t, "host=localhost port=5432 user=seniorcare password=seniorcare dbname=seniorcare sslmode=disable", cfg.Database.DSN())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("API_BASE_URL", "http://backend:8081")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DEV", "false")
	t.Setenv("SESSION_SECRET", "prod-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "http://backend:8081", cfg.API.BaseURL)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, 3, cfg.Cache.RedisDB)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.App.Dev)
}

func TestLoad_Rejects(t *testing.T) {
	tests := map[string]map[string]string{
		"cache driver":        {"CACHE_DRIVER": "memcached"},
		"db driver":           {"DB_DRIVER": "oracle"},
		"default secret prod": {"DEV": "false"},
		"bad int":             {"REDIS_DB": "x"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
