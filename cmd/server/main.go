// Command server runs the senior user admin panel. It talks to the REST
// backend configured by API_BASE_URL.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-seniorcare/internal/apisdk"
	"github.com/diewo77/go-seniorcare/internal/cache"
	"github.com/diewo77/go-seniorcare/internal/config"
	"github.com/diewo77/go-seniorcare/internal/logging"
	"github.com/diewo77/go-seniorcare/internal/policy"
)

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Log, cfg.App.Dev)

	store, closeStore, err := newStore(cfg.Cache, log)
	if err != nil {
		log.WithError(err).Fatal("cache unavailable")
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := apisdk.New(cfg.API.BaseURL, cfg.API.APITimeout(),
		apisdk.WithToken(cfg.API.Token),
		apisdk.WithLogger(log),
	)

	routerCfg := policy.NewRouterConfig(policy.Deps{
		Config:   cfg,
		Client:   client,
		Store:    store,
		Registry: reg,
		Log:      log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(routerCfg, reg, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"port": cfg.Server.Port,
			"api":  cfg.API.BaseURL,
			"dev":  cfg.App.Dev,
		}).Info("admin server starting")
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
	log.Info("server stopped gracefully")
}

// newStore builds the record cache selected by CACHE_DRIVER.
func newStore(cfg config.CacheConfig, log logrus.FieldLogger) (cache.Store, func(), error) {
	if cfg.Driver != "redis" {
		return cache.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := cache.NewRedisStore(client, cfg.RedisPrefix)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	log.WithField("addr", cfg.RedisAddr).Info("using redis cache")
	return store, func() { _ = client.Close() }, nil
}
