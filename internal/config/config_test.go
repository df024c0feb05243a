// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/polyglot.db", cfg.DBPath)
	assert.Equal(t, "localhost:8080", cfg.ServerAddr())
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, int64(60), cfg.RateQuota)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.UseRedisCache())
	assert.False(t, cfg.HasBackend())
	assert.False(t, cfg.WebhooksEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	os.Clearenv()
	setEnv(t, "POLYGLOT_RATE_QUOTA", "10")
	setEnv(t, "POLYGLOT_RATE_WINDOW", "30s")
	setEnv(t, "POLYGLOT_DEEPL_API_KEY", "key123")
	setEnv(t, "POLYGLOT_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(10), cfg.RateQuota)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)
	assert.True(t, cfg.HasBackend())
	assert.True(t, cfg.UseRedisCache())
}

func TestLoad_InvalidRate(t *testing.T) {
	os.Clearenv()
	setEnv(t, "POLYGLOT_RATE_QUOTA", "0")

	_, err := Load()
	assert.Error(t, err, "zero quota must be rejected")
}

func TestLoad_WebhookValidation(t *testing.T) {
	os.Clearenv()
	setEnv(t, "POLYGLOT_WEBHOOK_URLS", "https://hooks.example.com/polyglot")

	_, err := Load()
	assert.Error(t, err, "webhooks without a secret must be rejected")

	setEnv(t, "POLYGLOT_WEBHOOK_SECRET", "short")
	_, err = Load()
	assert.Error(t, err, "short secrets must be rejected")

	setEnv(t, "POLYGLOT_WEBHOOK_SECRET", "a-long-enough-signing-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.WebhooksEnabled())

	setEnv(t, "POLYGLOT_WEBHOOK_URLS", "not-a-url")
	_, err = Load()
	assert.Error(t, err, "relative webhook URLs must be rejected")
}
