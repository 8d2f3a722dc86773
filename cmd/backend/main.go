// Command backend serves the reference REST API used by the admin server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-seniorcare/internal/backend"
	"github.com/diewo77/go-seniorcare/internal/config"
	"github.com/diewo77/go-seniorcare/internal/db"
	"github.com/diewo77/go-seniorcare/internal/logging"
	"github.com/diewo77/go-seniorcare/internal/middleware"
	"github.com/diewo77/go-seniorcare/internal/policy"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Log, cfg.App.Dev)

	conn, err := db.Open(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(conn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := seed(conn, cfg.App.Dev); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
		log.Info("seeding completed successfully")
		return
	}

	if cfg.App.Migrations {
		if err := db.Migrate(conn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed")
	}
	if cfg.App.Seed {
		if err := seed(conn, cfg.App.Dev); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
	}

	api := backend.New(conn, policy.NewDBProfileResolver(conn),
		backend.WithToken(cfg.API.Token),
		backend.WithLogger(log),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.RequestLogger(log)(api),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":   cfg.Server.Port,
			"driver": cfg.Database.Driver,
		}).Info("backend starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("backend stopped gracefully")
}

// seed installs profiles and permissions, plus demo data in dev mode.
func seed(conn *gorm.DB, dev bool) error {
	if err := db.Seed(conn); err != nil {
		return err
	}
	if dev {
		return db.SeedDemo(conn)
	}
	return nil
}
