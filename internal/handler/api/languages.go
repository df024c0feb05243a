// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/registry"
	"github.com/olegiv/polyglot-go/internal/store"
)

// LanguageResponse represents a language in API responses.
type LanguageResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	IsDefault  bool   `json:"is_default"`
	IsActive   bool   `json:"is_active"`
	Direction  string `json:"direction"`
}

func languageToResponse(l store.Language) LanguageResponse {
	return LanguageResponse{
		Code:       l.Code,
		Name:       l.Name,
		NativeName: l.NativeName,
		IsDefault:  l.IsDefault,
		IsActive:   l.IsActive,
		Direction:  l.Direction,
	}
}

// ListLanguages serves GET /languages.
func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := h.queries.ListLanguages(r.Context())
	if err != nil {
		h.log.Error("listing languages", "error", err)
		WriteInternalError(w, "Failed to list languages")
		return
	}

	out := make([]LanguageResponse, 0, len(langs))
	for _, l := range langs {
		out = append(out, languageToResponse(l))
	}
	WriteSuccess(w, out, &Meta{Total: int64(len(out))})
}

// CreateLanguageRequest is the body of POST /languages.
type CreateLanguageRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name,omitempty"`
	Direction  string `json:"direction,omitempty"`
	IsActive   bool   `json:"is_active"`
}

// CreateLanguage serves POST /languages.
func (h *Handler) CreateLanguage(w http.ResponseWriter, r *http.Request) {
	var req CreateLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	fieldErrors := make(map[string]string)
	if !registry.IsWellFormed(req.Code) {
		fieldErrors["code"] = "not a well-formed BCP 47 language tag"
	}
	if req.Name == "" {
		fieldErrors["name"] = "required"
	}
	if req.Direction != "" && req.Direction != model.DirectionLTR && req.Direction != model.DirectionRTL {
		fieldErrors["direction"] = "must be ltr or rtl"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	if _, err := h.queries.GetLanguageByCode(r.Context(), req.Code); err == nil {
		WriteError(w, http.StatusConflict, "conflict", "Language already exists: "+req.Code, nil)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		WriteInternalError(w, "Failed to check language")
		return
	}

	direction := req.Direction
	if direction == "" {
		direction = model.DirectionLTR
	}
	nativeName := req.NativeName
	if nativeName == "" {
		nativeName = req.Name
	}

	count, err := h.queries.CountLanguages(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to create language")
		return
	}

	now := time.Now().UTC()
	lang, err := h.queries.CreateLanguage(r.Context(), store.CreateLanguageParams{
		Code:       req.Code,
		Name:       req.Name,
		NativeName: nativeName,
		IsActive:   req.IsActive,
		Direction:  direction,
		Position:   count,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		h.log.Error("creating language", "code", req.Code, "error", err)
		WriteInternalError(w, "Failed to create language")
		return
	}

	h.registry.Invalidate()
	WriteCreated(w, languageToResponse(lang))
}

// UpdateLanguageRequest is the body of PUT /languages/{code}.
type UpdateLanguageRequest struct {
	IsActive bool `json:"is_active"`
}

// UpdateLanguage serves PUT /languages/{code}. Deactivation stops new
// translations into the locale; existing group members are untouched.
func (h *Handler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req UpdateLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	err := h.queries.UpdateLanguageActive(r.Context(), store.UpdateLanguageActiveParams{
		IsActive:  req.IsActive,
		UpdatedAt: time.Now().UTC(),
		Code:      code,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Language not found: "+code)
			return
		}
		h.log.Error("updating language", "code", code, "error", err)
		WriteInternalError(w, "Failed to update language")
		return
	}

	h.registry.Invalidate()

	lang, err := h.queries.GetLanguageByCode(r.Context(), code)
	if err != nil {
		WriteInternalError(w, "Failed to load language")
		return
	}
	WriteSuccess(w, languageToResponse(lang), nil)
}
