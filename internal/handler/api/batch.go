// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/olegiv/polyglot-go/internal/batch"
	"github.com/olegiv/polyglot-go/internal/content"
	"github.com/olegiv/polyglot-go/internal/middleware"
	"github.com/olegiv/polyglot-go/internal/model"
)

// BatchItem is one source element with its requested target locales.
type BatchItem struct {
	Element       model.ElementRef `json:"element"`
	TargetLocales []string         `json:"target_locales"`
}

// BatchRequest is the body of POST /translate/batch.
type BatchRequest struct {
	Items   []BatchItem `json:"items"`
	Backend string      `json:"backend,omitempty"`
}

// TranslateBatch serves POST /translate/batch. The request fails whole
// only for problems visible before any job runs; per-job faults land in
// the summary.
func (h *Handler) TranslateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}
	if len(req.Items) == 0 {
		WriteValidationError(w, map[string]string{"items": "at least one item is required"})
		return
	}
	if !h.validBackend(req.Backend) {
		WriteValidationError(w, map[string]string{"backend": "unknown translation backend: " + req.Backend})
		return
	}

	var jobs []model.Job
	for _, item := range req.Items {
		if err := item.Element.Validate(); err != nil {
			WriteValidationError(w, map[string]string{"element": err.Error()})
			return
		}
		if len(item.TargetLocales) == 0 {
			WriteValidationError(w, map[string]string{"target_locales": "required for element " + item.Element.String()})
			return
		}
		if _, err := h.content.Get(r.Context(), item.Element); err != nil {
			if errors.Is(err, content.ErrElementNotFound) {
				WriteValidationError(w, map[string]string{"element": "unknown element " + item.Element.String()})
				return
			}
			WriteInternalError(w, "Failed to load element")
			return
		}
		for _, locale := range item.TargetLocales {
			jobs = append(jobs, model.Job{Source: item.Element, TargetLocale: locale, Backend: req.Backend})
		}
	}

	summary, err := h.orchestrator.Run(r.Context(), middleware.ActorID(r), jobs)
	if err != nil {
		if errors.Is(err, batch.ErrEmptyBatch) {
			WriteValidationError(w, map[string]string{"items": "at least one item is required"})
			return
		}
		WriteValidationError(w, map[string]string{"items": err.Error()})
		return
	}

	h.afterRun(r.Context(), summary)
	WriteSuccess(w, summary, nil)
}
