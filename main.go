package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"vestquest-engine/internal/auth"
	"vestquest-engine/internal/cache"
	"vestquest-engine/internal/calculations"
	"vestquest-engine/internal/config"
	"vestquest-engine/internal/engine"
	"vestquest-engine/internal/handler"
	"vestquest-engine/internal/rateregistry"
	"vestquest-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelInit()

	var grants store.GrantStore = store.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(initCtx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("Database unavailable", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(initCtx); err != nil {
			logger.Error("Schema migration failed", "error", err)
			os.Exit(1)
		}
		grants = pg
	}

	var results cache.SummaryCache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(initCtx, cfg.RedisAddr, logger)
		if err != nil {
			logger.Warn("Redis unavailable, caching in memory", "error", err)
		} else {
			defer rc.Close()
			results = rc
		}
	}

	rates := rateregistry.New(cfg.RateRegistryURL, cfg.Table, logger)
	eng := engine.New(engine.Deps{
		Registry: calculations.NewRegistry(cfg.Calculator()),
		Store:    grants,
		Cache:    results,
		Rates:    rates,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
	})

	var authn *auth.Authenticator
	if cfg.JWTSecret != "" {
		authn = auth.New(cfg.JWTSecret, logger)
	} else {
		logger.Warn("JWT_SECRET not set, API is open and export is disabled")
	}

	server := &fasthttp.Server{
		Handler:      handler.New(eng, rates, authn, logger).Handle(),
		Name:         "vestquest-engine",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("VestQuest engine starting", "port", cfg.Port)
		if err := server.ListenAndServe(":" + cfg.Port); err != nil {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("Server failed", "error", err)
		return
	case <-quit:
		logger.Info("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(ctx); err != nil {
		logger.Error("Error during server shutdown", "error", err)
	}
	logger.Info("Server exited")
}
