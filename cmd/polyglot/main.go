// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/polyglot-go/internal/batch"
	"github.com/olegiv/polyglot-go/internal/cache"
	"github.com/olegiv/polyglot-go/internal/config"
	"github.com/olegiv/polyglot-go/internal/content"
	"github.com/olegiv/polyglot-go/internal/graph"
	"github.com/olegiv/polyglot-go/internal/handler/api"
	"github.com/olegiv/polyglot-go/internal/logging"
	"github.com/olegiv/polyglot-go/internal/middleware"
	"github.com/olegiv/polyglot-go/internal/ratelimit"
	"github.com/olegiv/polyglot-go/internal/registry"
	"github.com/olegiv/polyglot-go/internal/scheduler"
	"github.com/olegiv/polyglot-go/internal/store"
	"github.com/olegiv/polyglot-go/internal/translator"
	"github.com/olegiv/polyglot-go/internal/version"
	"github.com/olegiv/polyglot-go/internal/webhook"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "polyglot - Translation group and batch orchestration engine\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_DB_PATH           SQLite database path (default: ./data/polyglot.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_RATE_QUOTA        Translation jobs per actor per window (default: 60)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_RATE_WINDOW       Rate-limit window length (default: 1m)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_OPENAI_API_KEY    OpenAI API key (enables the openai backend)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_DEEPL_API_KEY     DeepL API key (enables the deepl backend)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_LIBRE_URL         LibreTranslate URL (enables the libre backend)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_REDIS_URL         Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_WEBHOOK_URLS      Comma-separated webhook endpoint URLs (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/olegiv/polyglot-go\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		info := version.Get()
		_, _ = fmt.Printf("polyglot %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildTime)
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

	// Upgrade logger to also write WARN and ERROR logs to the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	queries := store.New(db)

	// Locale registry, preloaded so the first request never pays for it
	localeRegistry := registry.New(queries)
	if err := localeRegistry.Preload(ctx); err != nil {
		return fmt.Errorf("preloading locale registry: %w", err)
	}
	if active, err := localeRegistry.ActiveLocales(ctx); err == nil {
		slog.Info("locale registry loaded", "active", active)
	}

	// View cache, Redis-backed when configured
	cacheConfig := cache.Config{
		Type:       "memory",
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
	}
	if cfg.UseRedisCache() {
		cacheConfig.Type = "redis"
	}
	cacher, err := cache.New(cacheConfig)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := cacher.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	views := cache.NewViewCache(cacher, time.Duration(cfg.CacheTTL)*time.Second)
	slog.Info("cache initialized", "backend", cacheConfig.Type)

	// Translation backends
	var providers []translator.Provider
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, translator.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL))
	}
	if cfg.DeepLAPIKey != "" {
		providers = append(providers, translator.NewDeepL(cfg.DeepLAPIKey, cfg.DeepLBaseURL))
	}
	if cfg.LibreURL != "" {
		providers = append(providers, translator.NewLibre(cfg.LibreAPIKey, cfg.LibreURL))
	}
	backendRegistry := translator.NewRegistry(providers...)
	gateway := translator.NewGateway(backendRegistry, logger, cfg.RetryAttempts, cfg.RetryBackoff)
	slog.Info("translator gateway initialized", "backends", backendRegistry.IDs())

	// Group graph, content store, rate limiter and batch orchestrator
	resolver := graph.NewResolver(graph.NewStore(db))
	contentStore := content.NewStore(queries, gateway)
	limiter := ratelimit.New(cfg.RateQuota, cfg.RateWindow)
	orchestrator := batch.New(resolver, localeRegistry, limiter, contentStore, logger, cfg.MaxConcurrency)

	// Webhook dispatcher
	var endpoints []webhook.Endpoint
	for _, raw := range cfg.WebhookURLs {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing webhook URL %q: %w", raw, err)
		}
		endpoints = append(endpoints, webhook.Endpoint{
			Name:   u.Host,
			URL:    raw,
			Secret: cfg.WebhookSecret,
		})
	}
	hooks, err := webhook.NewDispatcher(endpoints, logger, webhook.Config{
		Workers:               cfg.WebhookWorkers,
		AllowPrivateEndpoints: cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing webhook dispatcher: %w", err)
	}
	hooks.Start()
	defer hooks.Stop()
	slog.Info("webhook dispatcher initialized", "endpoints", len(endpoints))

	// Periodic maintenance
	sched := scheduler.New(limiter, localeRegistry, logger)
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
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.GlobalRateLimit(cfg.GlobalRateRPS, cfg.GlobalBurst))

	apiHandler := api.NewHandler(db, localeRegistry, resolver, contentStore, orchestrator, gateway, views, hooks, logger)
	r.Mount("/api/v1", apiHandler.Routes())

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      5 * time.Minute, // Batch calls block until every job resolves
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
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
