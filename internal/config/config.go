// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me",
	"REPLACE_WITH_YOUR_OWN_SECRET",
}

// MinWebhookSecretLength is the minimum length for the webhook signing secret.
const MinWebhookSecretLength = 16

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"POLYGLOT_DB_PATH" envDefault:"./data/polyglot.db"`
	ServerHost string `env:"POLYGLOT_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"POLYGLOT_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"POLYGLOT_ENV" envDefault:"development"`
	LogLevel   string `env:"POLYGLOT_LOG_LEVEL" envDefault:"info"`

	// Batch and rate limiting
	MaxConcurrency int           `env:"POLYGLOT_MAX_CONCURRENCY" envDefault:"4"`  // In-flight jobs per batch
	RateQuota      int64         `env:"POLYGLOT_RATE_QUOTA" envDefault:"60"`      // Jobs per actor per window
	RateWindow     time.Duration `env:"POLYGLOT_RATE_WINDOW" envDefault:"1m"`     // Quota window length
	GlobalRateRPS  float64       `env:"POLYGLOT_GLOBAL_RATE_RPS" envDefault:"50"` // Per-IP request rate
	GlobalBurst    int           `env:"POLYGLOT_GLOBAL_RATE_BURST" envDefault:"100"`

	// Translator gateway
	RetryAttempts int           `env:"POLYGLOT_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBackoff  time.Duration `env:"POLYGLOT_RETRY_BACKOFF" envDefault:"500ms"`

	// Translation backends. Any subset may be configured; the first
	// configured one becomes the default.
	OpenAIAPIKey  string `env:"POLYGLOT_OPENAI_API_KEY"`
	OpenAIModel   string `env:"POLYGLOT_OPENAI_MODEL"`
	OpenAIBaseURL string `env:"POLYGLOT_OPENAI_BASE_URL"`
	DeepLAPIKey   string `env:"POLYGLOT_DEEPL_API_KEY"`
	DeepLBaseURL  string `env:"POLYGLOT_DEEPL_BASE_URL"`
	LibreURL      string `env:"POLYGLOT_LIBRE_URL"`
	LibreAPIKey   string `env:"POLYGLOT_LIBRE_API_KEY"`

	// Cache configuration
	RedisURL    string `env:"POLYGLOT_REDIS_URL"`                      // Optional Redis URL for distributed caching
	CachePrefix string `env:"POLYGLOT_CACHE_PREFIX" envDefault:"pgt:"` // Redis key prefix
	CacheTTL    int    `env:"POLYGLOT_CACHE_TTL" envDefault:"3600"`    // Default cache TTL in seconds

	// Webhooks. URLs are comma-separated; all endpoints share one
	// signing secret.
	WebhookURLs    []string `env:"POLYGLOT_WEBHOOK_URLS"`
	WebhookSecret  string   `env:"POLYGLOT_WEBHOOK_SECRET"`
	WebhookWorkers int      `env:"POLYGLOT_WEBHOOK_WORKERS" envDefault:"2"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// HasBackend reports whether at least one translation backend is configured.
func (c Config) HasBackend() bool {
	return c.OpenAIAPIKey != "" || c.DeepLAPIKey != "" || c.LibreURL != ""
}

// WebhooksEnabled returns true if webhook delivery is configured.
func (c Config) WebhooksEnabled() bool {
	return len(c.WebhookURLs) > 0
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.RateQuota <= 0 {
		return nil, fmt.Errorf("POLYGLOT_RATE_QUOTA must be positive, got %d", cfg.RateQuota)
	}
	if cfg.RateWindow <= 0 {
		return nil, fmt.Errorf("POLYGLOT_RATE_WINDOW must be positive, got %s", cfg.RateWindow)
	}

	for _, raw := range cfg.WebhookURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("POLYGLOT_WEBHOOK_URLS entry %q is not an absolute URL", raw)
		}
	}

	if cfg.WebhooksEnabled() {
		if len(cfg.WebhookSecret) < MinWebhookSecretLength {
			return nil, fmt.Errorf("POLYGLOT_WEBHOOK_SECRET must be at least %d bytes long when webhooks are configured; "+
				"generate one with: openssl rand -base64 32", MinWebhookSecretLength)
		}
		for _, weak := range knownWeakSecrets {
			if cfg.WebhookSecret == weak {
				return nil, fmt.Errorf("POLYGLOT_WEBHOOK_SECRET is a known default value and must not be used")
			}
		}
	}

	if !cfg.HasBackend() {
		slog.Warn("no translation backend configured; translate requests will fail until one is set")
	}

	return cfg, nil
}
