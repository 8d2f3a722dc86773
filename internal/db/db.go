// Package db opens the backend database and applies schema and seed data.
package db

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-seniorcare/internal/config"
)

// Open connects to the configured database. Postgres connections are retried
// a few times to let the server come up alongside the backend.
func Open(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		// References on senior users may hold an empty string, which is not
		// a valid foreign key value.
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	}

	switch cfg.Driver {
	case "sqlite":
		log.WithField("path", cfg.SQLitePath).Info("opening sqlite database")
		return gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
	case "postgres":
		log.WithFields(logrus.Fields{
			"host": cfg.Host, "port": cfg.Port, "dbname": cfg.DBName, "user": cfg.User,
		}).Info("connecting to database")
		var (
			conn *gorm.DB
			err  error
		)
		for i := 0; i < 5; i++ {
			conn, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
			if err == nil {
				return conn, nil
			}
			log.WithError(err).Warnf("connection attempt %d/5 failed, retrying", i+1)
			time.Sleep(2 * time.Second)
		}
		return nil, fmt.Errorf("connect database: %w", err)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenMemory returns a fresh in-memory sqlite database with the schema
// applied. Used by tests and local demos.
func OpenMemory() (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	// Each pooled connection would otherwise see its own empty database.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}
