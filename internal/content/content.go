// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content is the reference element store. Host applications
// normally own the translatable content; this package gives the
// standalone service a sqlite-backed elements table so translated copies
// have somewhere to live.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/store"
	"github.com/olegiv/polyglot-go/internal/translator"
	"github.com/olegiv/polyglot-go/internal/util"
)

// Element statuses. Translated copies start as drafts so a human can
// review machine output before it goes live.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// ErrElementNotFound is returned when a referenced element does not exist.
var ErrElementNotFound = errors.New("element not found")

// slugAttempts bounds the dedup loop for pathological slug collisions.
const slugAttempts = 50

// Store reads and writes elements and produces translated copies through
// the translator gateway.
type Store struct {
	queries *store.Queries
	gateway *translator.Gateway
}

// NewStore creates the content store over queries and gateway.
func NewStore(queries *store.Queries, gateway *translator.Gateway) *Store {
	return &Store{queries: queries, gateway: gateway}
}

// Get loads one element by reference.
func (s *Store) Get(ctx context.Context, ref model.ElementRef) (store.Element, error) {
	el, err := s.queries.GetElement(ctx, store.GetElementParams{ID: ref.ID, Kind: ref.Kind})
	if errors.Is(err, sql.ErrNoRows) {
		return store.Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, ref)
	}
	if err != nil {
		return store.Element{}, fmt.Errorf("loading element %s: %w", ref, err)
	}
	return el, nil
}

// Create inserts a new original element. The slug is derived from the
// title and deduplicated within the (kind, locale) namespace.
func (s *Store) Create(ctx context.Context, kind, locale, title, body, status string) (store.Element, error) {
	if status == "" {
		status = StatusDraft
	}
	slug, err := s.uniqueSlug(ctx, kind, locale, title)
	if err != nil {
		return store.Element{}, err
	}
	now := time.Now().UTC()
	el, err := s.queries.CreateElement(ctx, store.CreateElementParams{
		Kind:      kind,
		Locale:    locale,
		Title:     title,
		Body:      body,
		Slug:      slug,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return store.Element{}, fmt.Errorf("creating element: %w", err)
	}
	return el, nil
}

// Delete removes an element row. Group membership cleanup is the
// caller's job.
func (s *Store) Delete(ctx context.Context, ref model.ElementRef) error {
	return s.queries.DeleteElement(ctx, store.GetElementParams{ID: ref.ID, Kind: ref.Kind})
}

// SourceLocale returns the locale the source element is written in.
func (s *Store) SourceLocale(ctx context.Context, source model.ElementRef) (string, error) {
	el, err := s.Get(ctx, source)
	if err != nil {
		return "", err
	}
	return el.Locale, nil
}

// Produce translates source into targetLocale and persists the copy as a
// draft. Title and body go through the backend separately; the slug is
// rebuilt from the translated title.
func (s *Store) Produce(ctx context.Context, source model.ElementRef, sourceLocale, targetLocale, backend string) (model.ElementRef, error) {
	el, err := s.Get(ctx, source)
	if err != nil {
		return model.ElementRef{}, err
	}

	title, err := s.gateway.Translate(ctx, backend, translator.Request{
		Text:         el.Title,
		SourceLocale: sourceLocale,
		TargetLocale: targetLocale,
	})
	if err != nil {
		return model.ElementRef{}, err
	}

	body := &translator.Result{}
	if el.Body != "" {
		body, err = s.gateway.Translate(ctx, backend, translator.Request{
			Text:         el.Body,
			SourceLocale: sourceLocale,
			TargetLocale: targetLocale,
		})
		if err != nil {
			return model.ElementRef{}, err
		}
	}

	created, err := s.Create(ctx, el.Kind, targetLocale, title.Text, body.Text, StatusDraft)
	if err != nil {
		return model.ElementRef{}, err
	}
	return model.ElementRef{ID: created.ID, Kind: created.Kind}, nil
}

// Permalink returns the public path for an element.
func Permalink(el store.Element) string {
	return fmt.Sprintf("/%s/%s", el.Locale, el.Slug)
}

// uniqueSlug slugifies title and appends a numeric suffix until the slug
// is free within (kind, locale).
func (s *Store) uniqueSlug(ctx context.Context, kind, locale, title string) (string, error) {
	base := util.Slugify(title)
	slug := base
	for i := 2; ; i++ {
		n, err := s.queries.CountElementSlug(ctx, kind, locale, slug)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", slug, err)
		}
		if n == 0 {
			return slug, nil
		}
		if i > slugAttempts {
			return "", fmt.Errorf("no free slug for %q in %s/%s", base, kind, locale)
		}
		slug = util.SlugifyN(title, i)
	}
}
