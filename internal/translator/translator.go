// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translator adapts machine translation backends behind a single
// Provider interface. Backends classify their failures into three error
// classes so callers can distinguish a retryable outage from a permanent
// refusal without knowing which backend was used.
package translator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backend IDs for supported translation providers.
const (
	BackendOpenAI = "openai"
	BackendDeepL  = "deepl"
	BackendLibre  = "libre"
)

const httpTimeout = 120 * time.Second

// Error classes. Backends wrap their failures in exactly one of these;
// everything else is treated as an internal fault.
var (
	// ErrBackendUnavailable marks transient faults: timeouts, 5xx
	// responses, throttling by the backend. Retryable.
	ErrBackendUnavailable = errors.New("translation backend unavailable")

	// ErrUnsupportedLocalePair marks a source/target combination the
	// backend cannot handle. Permanent.
	ErrUnsupportedLocalePair = errors.New("unsupported locale pair")

	// ErrContentRejected marks content the backend refused to process.
	// Permanent.
	ErrContentRejected = errors.New("content rejected by backend")
)

// Request carries one text through a backend.
type Request struct {
	Text         string
	SourceLocale string
	TargetLocale string
}

// Result is the translated text plus backend accounting.
type Result struct {
	Text    string
	Backend string
	Model   string // backend-specific model or engine identifier
}

// Provider is a single translation backend.
type Provider interface {
	ID() string
	Translate(ctx context.Context, req Request) (*Result, error)
}

// Registry holds the configured backends by ID.
type Registry struct {
	providers map[string]Provider
	fallback  string
}

// NewRegistry builds a registry. The first registered provider becomes
// the default backend.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if r.fallback == "" {
			r.fallback = p.ID()
		}
		r.providers[p.ID()] = p
	}
	return r
}

// Get returns the backend for id, or the default backend when id is empty.
func (r *Registry) Get(id string) (Provider, error) {
	if id == "" {
		id = r.fallback
	}
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("unknown translation backend: %s", id)
	}
	return p, nil
}

// IDs lists the registered backend IDs.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
