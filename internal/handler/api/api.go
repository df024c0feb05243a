// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST surface of the translation engine.
package api

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/polyglot-go/internal/batch"
	"github.com/olegiv/polyglot-go/internal/cache"
	"github.com/olegiv/polyglot-go/internal/content"
	"github.com/olegiv/polyglot-go/internal/graph"
	"github.com/olegiv/polyglot-go/internal/middleware"
	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/registry"
	"github.com/olegiv/polyglot-go/internal/store"
	"github.com/olegiv/polyglot-go/internal/translator"
	"github.com/olegiv/polyglot-go/internal/webhook"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db           *sql.DB
	queries      *store.Queries
	registry     *registry.Registry
	resolver     *graph.Resolver
	content      *content.Store
	orchestrator *batch.Orchestrator
	gateway      *translator.Gateway
	views        *cache.ViewCache
	hooks        *webhook.Dispatcher
	log          *slog.Logger
}

// NewHandler wires the API handler.
func NewHandler(db *sql.DB, reg *registry.Registry, resolver *graph.Resolver, contentStore *content.Store, orchestrator *batch.Orchestrator, gateway *translator.Gateway, views *cache.ViewCache, hooks *webhook.Dispatcher, log *slog.Logger) *Handler {
	return &Handler{
		db:           db,
		queries:      store.New(db),
		registry:     reg,
		resolver:     resolver,
		content:      contentStore,
		orchestrator: orchestrator,
		gateway:      gateway,
		views:        views,
		hooks:        hooks,
		log:          log,
	}
}

// Routes mounts all v1 endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(h.db))

		r.Route("/elements", func(r chi.Router) {
			r.With(middleware.RequirePermission(model.PermissionTranslationsWrite)).
				Post("/", h.CreateElement)
			r.Route("/{kind}/{id}", func(r chi.Router) {
				r.With(middleware.RequirePermission(model.PermissionTranslationsRead)).
					Get("/", h.GetElement)
				r.With(middleware.RequirePermission(model.PermissionTranslationsRead)).
					Get("/translations", h.TranslationView)
				r.With(middleware.RequirePermission(model.PermissionTranslationsWrite)).
					Post("/translate", h.TranslateElement)
				r.With(middleware.RequirePermission(model.PermissionTranslationsWrite)).
					Delete("/translations", h.DetachElement)
			})
		})

		r.With(middleware.RequirePermission(model.PermissionTranslationsWrite)).
			Post("/translate/batch", h.TranslateBatch)

		r.Route("/languages", func(r chi.Router) {
			r.With(middleware.RequirePermission(model.PermissionLanguagesRead)).
				Get("/", h.ListLanguages)
			r.With(middleware.RequirePermission(model.PermissionLanguagesWrite)).
				Post("/", h.CreateLanguage)
			r.With(middleware.RequirePermission(model.PermissionLanguagesWrite)).
				Put("/{code}", h.UpdateLanguage)
		})
	})

	return r
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int64 `json:"total,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response in the data envelope.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 response in the data envelope.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	middleware.WriteAPIError(w, statusCode, code, message, details)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// elementRefFromURL parses the {kind}/{id} route segments.
func elementRefFromURL(r *http.Request) (model.ElementRef, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return model.ElementRef{}, err
	}
	ref := model.ElementRef{ID: id, Kind: chi.URLParam(r, "kind")}
	return ref, ref.Validate()
}

// validBackend reports whether name is empty (default) or registered.
func (h *Handler) validBackend(name string) bool {
	if name == "" {
		return true
	}
	for _, id := range h.gateway.Backends() {
		if id == name {
			return true
		}
	}
	return false
}
