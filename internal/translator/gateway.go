// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Default retry policy for transient backend faults.
const (
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 500 * time.Millisecond
)

// Gateway fronts the backend registry with retries and output
// sanitization. Only ErrBackendUnavailable is retried; permanent error
// classes surface immediately.
type Gateway struct {
	registry *Registry
	log      *slog.Logger
	attempts uint64
	backoff  time.Duration
}

// NewGateway wraps registry with the retry policy. attempts counts total
// tries including the first; zero values fall back to defaults.
func NewGateway(registry *Registry, log *slog.Logger, attempts int, backoff time.Duration) *Gateway {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &Gateway{
		registry: registry,
		log:      log,
		attempts: uint64(attempts),
		backoff:  backoff,
	}
}

// Backends lists the registered backend IDs.
func (g *Gateway) Backends() []string {
	return g.registry.IDs()
}

// Translate runs req through the named backend (default when empty),
// retrying transient faults with exponential backoff and sanitizing the
// result.
func (g *Gateway) Translate(ctx context.Context, backend string, req Request) (*Result, error) {
	provider, err := g.registry.Get(backend)
	if err != nil {
		return nil, err
	}

	var result *Result
	backoff := retry.WithMaxRetries(g.attempts-1, retry.NewExponential(g.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := provider.Translate(ctx, req)
		if err != nil {
			if errors.Is(err, ErrBackendUnavailable) {
				g.log.Warn("translation backend fault, will retry",
					"backend", provider.ID(),
					"source", req.SourceLocale,
					"target", req.TargetLocale,
					"error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Text = SanitizeTranslation(result.Text)
	if result.Text == "" {
		return nil, ErrContentRejected
	}
	return result, nil
}
