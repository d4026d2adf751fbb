// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command babel runs the blog translation service: an HTTP API that
// machine-translates CMS posts and their structured sections into the
// configured target languages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/babelcms/babel-go/internal/cache"
	"github.com/babelcms/babel-go/internal/config"
	"github.com/babelcms/babel-go/internal/handler/api"
	"github.com/babelcms/babel-go/internal/logging"
	"github.com/babelcms/babel-go/internal/middleware"
	"github.com/babelcms/babel-go/internal/model"
	"github.com/babelcms/babel-go/internal/runner"
	"github.com/babelcms/babel-go/internal/scheduler"
	"github.com/babelcms/babel-go/internal/store"
	"github.com/babelcms/babel-go/internal/translate"
	"github.com/babelcms/babel-go/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("babel %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the Event Log database
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)

	ctx := context.Background()
	s := store.New(db)
	if err := s.SeedLanguages(ctx); err != nil {
		return fmt.Errorf("seeding languages: %w", err)
	}

	// Translation provider
	var provider translate.Provider
	switch cfg.Provider {
	case translate.ProviderOllama:
		provider = translate.NewOllamaProvider(cfg.ProviderBaseURL, cfg.ProviderModel)
	default:
		provider = translate.NewOpenAIProvider(cfg.ProviderAPIKey, cfg.ProviderModel)
	}
	slog.Info("translation provider ready", "provider", provider.ID(), "model", cfg.ProviderModel)

	client := translate.NewClient(provider, cfg.TranslateDelay(), logger)
	translator := translate.NewTranslator(s, client, logger)

	// Status cache: Redis when configured, in-process memory otherwise
	statusBackend, err := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = statusBackend.Close() }()
	statusCache := cache.NewStatusCache(statusBackend, s)
	slog.Info("status cache ready", "redis", cfg.UseRedisCache())

	// Background runner
	runnerCfg := runner.DefaultConfig()
	runnerCfg.OnJobDone = func(job model.TranslationJob) {
		statusCache.Invalidate(context.Background(), job.PostID)
	}
	jobRunner := runner.New(translator, logger, runnerCfg)
	jobRunner.Start(ctx)
	defer jobRunner.Stop()

	// Failed translation sweep
	sched := scheduler.New(s, jobRunner, cfg.RetrySweepMinutes, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// HTTP router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	apiHandler := api.NewHandler(s, jobRunner, statusCache, logger)
	r.Route("/api", func(r chi.Router) {
		apiRateLimiter := middleware.NewGlobalRateLimiter(100, 200)
		r.Use(apiRateLimiter.Middleware())
		apiHandler.Routes(r)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      180 * time.Second, // Synchronous jobs wait on the provider
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
