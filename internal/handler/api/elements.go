// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/olegiv/polyglot-go/internal/content"
	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/store"
)

// ElementResponse represents an element in API responses. BodyHTML is
// only populated on single-element reads.
type ElementResponse struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Locale    string `json:"locale"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Status    string `json:"status"`
	Permalink string `json:"permalink"`
	BodyHTML  string `json:"body_html,omitempty"`
}

func elementToResponse(el store.Element) ElementResponse {
	return ElementResponse{
		ID:        el.ID,
		Kind:      el.Kind,
		Locale:    el.Locale,
		Title:     el.Title,
		Slug:      el.Slug,
		Status:    el.Status,
		Permalink: content.Permalink(el),
	}
}

// CreateElementRequest is the body of POST /elements.
type CreateElementRequest struct {
	Kind   string `json:"kind"`
	Locale string `json:"locale"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
	Status string `json:"status,omitempty"`
}

// CreateElement serves POST /elements.
func (h *Handler) CreateElement(w http.ResponseWriter, r *http.Request) {
	var req CreateElementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	fieldErrors := make(map[string]string)
	if !model.IsKnownElementKind(req.Kind) {
		fieldErrors["kind"] = "unknown element kind: " + req.Kind
	}
	if !h.registry.IsActive(r.Context(), req.Locale) {
		fieldErrors["locale"] = "locale is not registered or not active: " + req.Locale
	}
	if req.Title == "" {
		fieldErrors["title"] = "required"
	}
	if req.Status != "" && req.Status != content.StatusDraft && req.Status != content.StatusPublished {
		fieldErrors["status"] = "must be draft or published"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	el, err := h.content.Create(r.Context(), req.Kind, req.Locale, req.Title, req.Body, req.Status)
	if err != nil {
		h.log.Error("creating element", "kind", req.Kind, "locale", req.Locale, "error", err)
		WriteInternalError(w, "Failed to create element")
		return
	}

	WriteCreated(w, elementToResponse(el))
}

// GetElement serves GET /elements/{kind}/{id}. The stored markdown body
// is rendered to sanitized HTML.
func (h *Handler) GetElement(w http.ResponseWriter, r *http.Request) {
	ref, err := elementRefFromURL(r)
	if err != nil {
		WriteBadRequest(w, "Invalid element reference")
		return
	}

	el, err := h.content.Get(r.Context(), ref)
	if err != nil {
		if errors.Is(err, content.ErrElementNotFound) {
			WriteNotFound(w, "Element not found: "+ref.String())
			return
		}
		h.log.Error("loading element", "element", ref, "error", err)
		WriteInternalError(w, "Failed to load element")
		return
	}

	resp := elementToResponse(el)
	if el.Body != "" {
		html, err := content.RenderBody(el.Body)
		if err != nil {
			h.log.Error("rendering element body", "element", ref, "error", err)
			WriteInternalError(w, "Failed to render element body")
			return
		}
		resp.BodyHTML = html
	}

	WriteSuccess(w, resp, nil)
}
