// Command api is the Matchpulse API server.
//
// Usage:
//
//	matchpulse-api
//	API_PORT=8080 matchpulse-api

// @title Matchpulse API
// @version 1.0.0
// @description Sports companion API serving matches, match ratings, standout-player votes, player star ratings, and push notification scheduling for football, basketball and UFC.
// @host localhost:8000
// @BasePath /api
// @schemes http https
// @contact.name Matchpulse
// @license.name MIT
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/matchpulse/matchpulse-api/internal/api"
	"github.com/matchpulse/matchpulse-api/internal/cache"
	"github.com/matchpulse/matchpulse-api/internal/config"
	"github.com/matchpulse/matchpulse-api/internal/db"
	"github.com/matchpulse/matchpulse-api/internal/importer"
	"github.com/matchpulse/matchpulse-api/internal/notifications"

	_ "github.com/matchpulse/matchpulse-api/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("Failed to ensure schema", "error", err)
		os.Exit(1)
	}

	// Initialize cache
	appCache := cache.New(cfg.RedisURL, cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled, "redis", cfg.RedisURL != "")

	// Notification pipeline
	nstore := notifications.NewPgStore(pool.Pool)
	sched := notifications.NewScheduler(nstore, cfg.VotingWindowHours,
		time.Duration(cfg.ReminderOffsetHours)*time.Hour, logger)

	sender := notifications.NewExpoSender(cfg.PushGatewayURL, cfg.PushTimeout, logger)
	engine := notifications.NewEngine(nstore, sender, cfg.DispatchInterval, logger)
	if sender != nil {
		go engine.Start(ctx)
		logger.Info("Notification dispatch worker started", "interval", cfg.DispatchInterval)
	} else {
		logger.Info("Notification dispatch worker disabled (no EXPO_PUSH_URL)")
	}

	// Periodic provider re-sync
	imp := importer.NewClient(cfg.SportsDBKey, logger)
	var cr *cron.Cron
	if !cfg.SyncDisabled {
		cr = cron.New()
		_, err := cr.AddFunc(cfg.SyncCron, func() {
			res, err := importer.Sync(ctx, pool.Pool, imp, sched, cfg.SyncDays, logger)
			if err != nil {
				logger.Error("Provider sync failed", "error", err)
				return
			}
			logger.Info("Provider sync finished", "result", res.Summary())
		})
		if err != nil {
			logger.Error("Invalid sync cron spec", "spec", cfg.SyncCron, "error", err)
			os.Exit(1)
		}
		cr.Start()
		logger.Info("Provider sync scheduled", "cron", cfg.SyncCron, "days", cfg.SyncDays)
	}

	// Create router
	router := api.NewRouter(pool.Pool, appCache, cfg, sched, engine, nstore, imp)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Matchpulse API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	if cr != nil {
		cr.Stop()
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
