// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
// The admin server uses Server, API, Cache, Auth, App and Log; the
// reference backend uses Server, Database, App and Log.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Database DatabaseConfig
	App      AppConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `env:"PORT" envDefault:"8080"`
	ReadTimeout  int    `env:"SERVER_READ_TIMEOUT" envDefault:"15"`  // seconds
	WriteTimeout int    `env:"SERVER_WRITE_TIMEOUT" envDefault:"15"` // seconds
	IdleTimeout  int    `env:"SERVER_IDLE_TIMEOUT" envDefault:"60"`  // seconds
}

// APIConfig points the admin server at the REST backend.
type APIConfig struct {
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8081"`
	Token   string `env:"API_TOKEN"`
	Timeout int    `env:"API_TIMEOUT" envDefault:"10"` // seconds
}

// CacheConfig selects the shared data cache.
type CacheConfig struct {
	Driver        string `env:"CACHE_DRIVER" envDefault:"memory"` // memory | redis
	DedupeSeconds int    `env:"CACHE_DEDUPE_SECONDS" envDefault:"2"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"seniorcare:"`
}

// AuthConfig holds session and authorization settings.
type AuthConfig struct {
	SessionSecret   string `env:"SESSION_SECRET" envDefault:"devsessionsecret"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"336"`
	SecureCookies   bool   `env:"SECURE_COOKIES" envDefault:"false"`
	ProfileCacheTTL int    `env:"PROFILE_CACHE_TTL" envDefault:"300"` // seconds
}

// DatabaseConfig holds the backend database connection settings.
type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"postgres"` // postgres | sqlite
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       int    `env:"DB_PORT" envDefault:"5432"`
	User       string `env:"DB_USER" envDefault:"seniorcare"`
	Password   string `env:"DB_PASSWORD" envDefault:"seniorcare"`
	DBName     string `env:"DB_NAME" envDefault:"seniorcare"`
	SSLMode    string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"seniorcare.db"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool `env:"DEV" envDefault:"true"`
	Migrations bool `env:"MIGRATIONS" envDefault:"false"`
	Seed       bool `env:"SEED" envDefault:"false"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT"` // text | json; empty picks by App.Dev
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// APITimeout returns the API client timeout.
func (c APIConfig) APITimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_DRIVER: unsupported value %q", c.Cache.Driver)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER: unsupported value %q", c.Database.Driver)
	}
	if !c.App.Dev && c.Auth.SessionSecret == "devsessionsecret" {
		return fmt.Errorf("SESSION_SECRET must be set outside dev mode")
	}
	return nil
}
