// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/olegiv/polyglot-go/internal/batch"
	"github.com/olegiv/polyglot-go/internal/content"
	"github.com/olegiv/polyglot-go/internal/graph"
	"github.com/olegiv/polyglot-go/internal/middleware"
	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/webhook"
)

// SiblingView is one locale's entry in a translation view.
type SiblingView struct {
	Element      model.ElementRef `json:"element"`
	Title        string           `json:"title"`
	Permalink    string           `json:"permalink"`
	Status       string           `json:"status"`
	SourceLocale *string          `json:"source_locale,omitempty"`
}

// TranslationView maps an element to its full translation group.
type TranslationView struct {
	CurrentLocale string                 `json:"current_locale"`
	TRID          int64                  `json:"trid,omitempty"`
	Siblings      map[string]SiblingView `json:"siblings"`
}

// TranslationView serves GET /elements/{kind}/{id}/translations.
func (h *Handler) TranslationView(w http.ResponseWriter, r *http.Request) {
	ref, err := elementRefFromURL(r)
	if err != nil {
		WriteBadRequest(w, "Invalid element reference")
		return
	}

	if cached, err := h.views.Get(r.Context(), ref); err == nil {
		WriteSuccess(w, json.RawMessage(cached), nil)
		return
	}

	view, err := h.buildView(r.Context(), ref)
	if err != nil {
		if errors.Is(err, content.ErrElementNotFound) {
			WriteNotFound(w, "Element not found")
			return
		}
		h.log.Error("building translation view", "element", ref.String(), "error", err)
		WriteInternalError(w, "Failed to build translation view")
		return
	}

	raw, err := json.Marshal(view)
	if err != nil {
		WriteInternalError(w, "Failed to encode translation view")
		return
	}
	if err := h.views.Set(r.Context(), ref, raw); err != nil {
		h.log.Warn("caching translation view", "element", ref.String(), "error", err)
	}
	WriteSuccess(w, json.RawMessage(raw), nil)
}

// buildView assembles the translation view for one element.
func (h *Handler) buildView(ctx context.Context, ref model.ElementRef) (*TranslationView, error) {
	el, err := h.content.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	view := &TranslationView{
		CurrentLocale: el.Locale,
		Siblings:      make(map[string]SiblingView),
	}

	group, err := h.resolver.Store().GetGroup(ctx, ref)
	if err != nil {
		return nil, err
	}
	if group == nil {
		view.Siblings[el.Locale] = SiblingView{
			Element:   ref,
			Title:     el.Title,
			Permalink: content.Permalink(el),
			Status:    el.Status,
		}
		return view, nil
	}

	view.TRID = group.TRID
	for locale, member := range group.Members {
		sibling := SiblingView{Element: member.Element, SourceLocale: member.SourceLocale}
		memberEl, err := h.content.Get(ctx, member.Element)
		if err == nil {
			sibling.Title = memberEl.Title
			sibling.Permalink = content.Permalink(memberEl)
			sibling.Status = memberEl.Status
		}
		view.Siblings[locale] = sibling
	}
	return view, nil
}

// TranslateRequest is the body of POST /elements/{kind}/{id}/translate.
type TranslateRequest struct {
	TargetLocales []string `json:"target_locales"`
	Backend       string   `json:"backend,omitempty"`
}

// TranslateElement serves POST /elements/{kind}/{id}/translate.
func (h *Handler) TranslateElement(w http.ResponseWriter, r *http.Request) {
	ref, err := elementRefFromURL(r)
	if err != nil {
		WriteBadRequest(w, "Invalid element reference")
		return
	}

	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}
	if len(req.TargetLocales) == 0 {
		WriteValidationError(w, map[string]string{"target_locales": "at least one target locale is required"})
		return
	}
	if !h.validBackend(req.Backend) {
		WriteValidationError(w, map[string]string{"backend": "unknown translation backend: " + req.Backend})
		return
	}
	if _, err := h.content.Get(r.Context(), ref); err != nil {
		if errors.Is(err, content.ErrElementNotFound) {
			WriteNotFound(w, "Element not found")
			return
		}
		WriteInternalError(w, "Failed to load element")
		return
	}

	jobs := make([]model.Job, 0, len(req.TargetLocales))
	for _, locale := range req.TargetLocales {
		jobs = append(jobs, model.Job{Source: ref, TargetLocale: locale, Backend: req.Backend})
	}

	summary, err := h.orchestrator.Run(r.Context(), middleware.ActorID(r), jobs)
	if err != nil {
		if errors.Is(err, batch.ErrEmptyBatch) {
			WriteValidationError(w, map[string]string{"target_locales": "at least one target locale is required"})
			return
		}
		WriteBadRequest(w, err.Error())
		return
	}

	h.afterRun(r.Context(), summary)
	WriteSuccess(w, summary, nil)
}

// DetachResponse is the body of a successful detach.
type DetachResponse struct {
	TRID         int64 `json:"trid"`
	GroupDeleted bool  `json:"group_deleted"`
}

// DetachElement serves DELETE /elements/{kind}/{id}/translations.
func (h *Handler) DetachElement(w http.ResponseWriter, r *http.Request) {
	ref, err := elementRefFromURL(r)
	if err != nil {
		WriteBadRequest(w, "Invalid element reference")
		return
	}

	// Read the group first so every member's view can be invalidated
	// after the removal.
	group, err := h.resolver.Store().GetGroup(r.Context(), ref)
	if err != nil {
		WriteInternalError(w, "Failed to load translation group")
		return
	}

	trid, deleted, err := h.resolver.Remove(r.Context(), ref)
	if err != nil {
		if errors.Is(err, graph.ErrNotMember) {
			WriteNotFound(w, "Element is not part of a translation group")
			return
		}
		h.log.Error("detaching element", "element", ref.String(), "error", err)
		WriteInternalError(w, "Failed to detach element")
		return
	}

	if err := h.views.InvalidateGroup(r.Context(), group); err != nil {
		h.log.Warn("invalidating views after detach", "trid", trid, "error", err)
	}
	if deleted {
		h.hooks.Dispatch(webhook.NewEvent(webhook.EventGroupDeleted, DetachResponse{TRID: trid, GroupDeleted: true}))
	}

	WriteSuccess(w, DetachResponse{TRID: trid, GroupDeleted: deleted}, nil)
}

// afterRun invalidates cached views touched by a batch and emits the
// lifecycle webhooks. Failures here never affect the API response.
func (h *Handler) afterRun(ctx context.Context, summary model.BatchSummary) {
	seen := make(map[int64]bool)
	for _, result := range summary.Results {
		if result.TRID == 0 || seen[result.TRID] {
			continue
		}
		seen[result.TRID] = true
		group, err := h.resolver.Store().GetGroupByID(ctx, result.TRID)
		if err != nil || group == nil {
			continue
		}
		if err := h.views.InvalidateGroup(ctx, group); err != nil {
			h.log.Warn("invalidating views after batch", "trid", result.TRID, "error", err)
		}
	}

	for _, result := range summary.Results {
		if result.Status == model.JobStatusSucceeded {
			h.hooks.Dispatch(webhook.NewEvent(webhook.EventTranslationCompleted, result))
		}
	}
	h.hooks.Dispatch(webhook.NewEvent(webhook.EventBatchCompleted, summary))
}
