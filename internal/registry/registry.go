// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package registry holds the authoritative set of locale codes the engine
// accepts. It caches the languages table and validates codes at the API
// boundary; an unknown or inactive code is always rejected before it can
// reach a mutating operation.
package registry

import (
	"context"
	"sync"

	"golang.org/x/text/language"

	"github.com/olegiv/polyglot-go/internal/store"
)

// Registry provides cached access to the active locale set.
// All methods are safe for concurrent use.
type Registry struct {
	queries     *store.Queries
	mu          sync.RWMutex
	byCode      map[string]store.Language
	active      []string
	defaultLang string
	loaded      bool
}

// New creates a registry backed by the languages table.
func New(queries *store.Queries) *Registry {
	return &Registry{
		queries: queries,
		byCode:  make(map[string]store.Language),
	}
}

// IsWellFormed reports whether code parses as a BCP-47 language tag.
// This is a syntax check only; registry membership is checked by IsActive.
func IsWellFormed(code string) bool {
	if code == "" {
		return false
	}
	_, err := language.Parse(code)
	return err == nil
}

// IsActive reports whether code is registered and accepts new translations.
// Fails closed: lookup errors and unknown codes both report false.
func (r *Registry) IsActive(ctx context.Context, code string) bool {
	if err := r.ensureLoaded(ctx); err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.byCode[code]
	return ok && lang.IsActive
}

// IsKnown reports whether code is registered at all, active or not.
// Members of existing groups keep resolving through deactivated locales.
func (r *Registry) IsKnown(ctx context.Context, code string) bool {
	if err := r.ensureLoaded(ctx); err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byCode[code]
	return ok
}

// ActiveLocales returns the codes of all active locales.
func (r *Registry) ActiveLocales(ctx context.Context) ([]string, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.active))
	copy(out, r.active)
	return out, nil
}

// Default returns the default locale code, or "" if none is configured.
func (r *Registry) Default(ctx context.Context) (string, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultLang, nil
}

// Get returns the registered language for code.
func (r *Registry) Get(ctx context.Context, code string) (store.Language, bool) {
	if err := r.ensureLoaded(ctx); err != nil {
		return store.Language{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.byCode[code]
	return lang, ok
}

// Preload loads the language set into the cache. Useful on startup.
func (r *Registry) Preload(ctx context.Context) error {
	return r.loadAll(ctx)
}

// Invalidate clears the cache, forcing a reload on next access.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.byCode = make(map[string]store.Language)
	r.active = nil
	r.defaultLang = ""
}

// Refresh reloads the language set immediately.
func (r *Registry) Refresh(ctx context.Context) error {
	r.Invalidate()
	return r.loadAll(ctx)
}

func (r *Registry) ensureLoaded(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	return r.loadAll(ctx)
}

func (r *Registry) loadAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if r.loaded {
		return nil
	}

	languages, err := r.queries.ListLanguages(ctx)
	if err != nil {
		return err
	}

	r.byCode = make(map[string]store.Language, len(languages))
	r.active = r.active[:0]
	r.defaultLang = ""

	for _, lang := range languages {
		r.byCode[lang.Code] = lang
		if lang.IsActive {
			r.active = append(r.active, lang.Code)
		}
		if lang.IsDefault {
			r.defaultLang = lang.Code
		}
	}

	r.loaded = true
	return nil
}
