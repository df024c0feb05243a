// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/polyglot-go/internal/batch"
	"github.com/olegiv/polyglot-go/internal/cache"
	"github.com/olegiv/polyglot-go/internal/content"
	"github.com/olegiv/polyglot-go/internal/graph"
	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/ratelimit"
	"github.com/olegiv/polyglot-go/internal/registry"
	"github.com/olegiv/polyglot-go/internal/store"
	"github.com/olegiv/polyglot-go/internal/testutil"
	"github.com/olegiv/polyglot-go/internal/translator"
	"github.com/olegiv/polyglot-go/internal/webhook"
)

// echoProvider fakes a translation backend by tagging text with the
// target locale.
type echoProvider struct{}

func (echoProvider) ID() string { return "echo" }

func (echoProvider) Translate(_ context.Context, req translator.Request) (*translator.Result, error) {
	return &translator.Result{
		Text:    req.Text + " [" + req.TargetLocale + "]",
		Backend: "echo",
		Model:   "echo-1",
	}, nil
}

type testAPI struct {
	db      *sql.DB
	router  chi.Router
	key     string
	content *content.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db := testutil.TestDB(t)
	testutil.SeedLanguages(t, db, "en", "es", "fr")

	queries := store.New(db)
	log := testutil.TestLoggerSilent()

	reg := registry.New(queries)
	gateway := translator.NewGateway(translator.NewRegistry(echoProvider{}), log, 1, time.Millisecond)
	contentStore := content.NewStore(queries, gateway)
	resolver := graph.NewResolver(graph.NewStore(db))
	limiter := ratelimit.New(1000, time.Minute)
	orchestrator := batch.New(resolver, reg, limiter, contentStore, log, 2)
	views := cache.NewViewCache(cache.NewMemoryCache(time.Minute), time.Minute)
	hooks, err := webhook.NewDispatcher(nil, log, webhook.Config{})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	h := NewHandler(db, reg, resolver, contentStore, orchestrator, gateway, views, hooks, log)

	raw, prefix, err := model.GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	perms, _ := json.Marshal(model.AllPermissions())
	now := time.Now().UTC()
	_, err = queries.CreateAPIKey(t.Context(), store.CreateAPIKeyParams{
		Name:        "test",
		KeyHash:     model.HashAPIKey(raw),
		KeyPrefix:   prefix,
		Permissions: string(perms),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}

	return &testAPI{db: db, router: h.Routes(), key: raw, content: contentStore}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+a.key)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v\n%s", err, rec.Body.String())
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("data payload: %v\n%s", err, resp.Data)
	}
}

func (a *testAPI) seedElement(t *testing.T, locale, title string) model.ElementRef {
	t.Helper()

	el, err := a.content.Create(t.Context(), model.ElementKindPost, locale, title, "Body of "+title, content.StatusPublished)
	if err != nil {
		t.Fatalf("seeding element: %v", err)
	}
	return model.ElementRef{ID: el.ID, Kind: el.Kind}
}

func TestHealthOpen(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if health.Status != "ok" || health.Database != "ok" {
		t.Errorf("health = %+v", health)
	}
}

func TestAuthRequired(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/languages", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without key", rec.Code)
	}
}

func TestCreateElement(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/elements", CreateElementRequest{
		Kind: "post", Locale: "en", Title: "Hello World", Body: "Text",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var el ElementResponse
	decodeData(t, rec, &el)
	if el.Slug != "hello-world" || el.Permalink != "/en/hello-world" {
		t.Errorf("element = %+v", el)
	}
	if el.Status != content.StatusDraft {
		t.Errorf("status = %q, want draft default", el.Status)
	}

	bad := a.do(t, http.MethodPost, "/elements", CreateElementRequest{
		Kind: "widget", Locale: "xx", Title: "",
	})
	if bad.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid element status = %d, want 422", bad.Code)
	}
}

func TestGetElement(t *testing.T) {
	a := newTestAPI(t)

	created := a.do(t, http.MethodPost, "/elements", CreateElementRequest{
		Kind: "post", Locale: "en", Title: "Readme",
		Body: "A **bold** claim.\n\n<script>alert(1)</script>",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", created.Code, created.Body.String())
	}
	var el ElementResponse
	decodeData(t, created, &el)

	rec := a.do(t, http.MethodGet, fmt.Sprintf("/elements/post/%d", el.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got ElementResponse
	decodeData(t, rec, &got)
	if got.Title != "Readme" || got.Permalink != "/en/readme" {
		t.Errorf("element = %+v", got)
	}
	if !strings.Contains(got.BodyHTML, "<strong>bold</strong>") {
		t.Errorf("body_html = %q, want rendered markdown", got.BodyHTML)
	}
	if strings.Contains(got.BodyHTML, "<script>") {
		t.Errorf("body_html = %q, script must be sanitized away", got.BodyHTML)
	}

	missing := a.do(t, http.MethodGet, "/elements/post/9999", nil)
	if missing.Code != http.StatusNotFound {
		t.Errorf("missing element status = %d, want 404", missing.Code)
	}
}

func TestTranslateAndView(t *testing.T) {
	a := newTestAPI(t)
	ref := a.seedElement(t, "en", "Release Notes")

	rec := a.do(t, http.MethodPost, fmt.Sprintf("/elements/post/%d/translate", ref.ID), TranslateRequest{
		TargetLocales: []string{"es", "fr"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("translate status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var summary model.BatchSummary
	decodeData(t, rec, &summary)
	if summary.Succeeded != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	view := a.do(t, http.MethodGet, fmt.Sprintf("/elements/post/%d/translations", ref.ID), nil)
	if view.Code != http.StatusOK {
		t.Fatalf("view status = %d", view.Code)
	}
	var tv TranslationView
	decodeData(t, view, &tv)
	if tv.CurrentLocale != "en" || len(tv.Siblings) != 3 {
		t.Errorf("view = %+v", tv)
	}
	if tv.Siblings["es"].SourceLocale == nil || *tv.Siblings["es"].SourceLocale != "en" {
		t.Errorf("es sibling = %+v", tv.Siblings["es"])
	}

	// Repeating the same request skips instead of duplicating.
	again := a.do(t, http.MethodPost, fmt.Sprintf("/elements/post/%d/translate", ref.ID), TranslateRequest{
		TargetLocales: []string{"es"},
	})
	var summary2 model.BatchSummary
	decodeData(t, again, &summary2)
	if summary2.Skipped != 1 || summary2.Succeeded != 0 {
		t.Errorf("repeat summary = %+v", summary2)
	}
}

func TestTranslateValidation(t *testing.T) {
	a := newTestAPI(t)
	ref := a.seedElement(t, "en", "Checks")

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"missing element", "/elements/post/9999/translate", TranslateRequest{TargetLocales: []string{"es"}}, http.StatusNotFound},
		{"bad kind", "/elements/widget/1/translate", TranslateRequest{TargetLocales: []string{"es"}}, http.StatusBadRequest},
		{"no locales", fmt.Sprintf("/elements/post/%d/translate", ref.ID), TranslateRequest{}, http.StatusUnprocessableEntity},
		{"unknown backend", fmt.Sprintf("/elements/post/%d/translate", ref.ID), TranslateRequest{TargetLocales: []string{"es"}, Backend: "nope"}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestTranslateBatchMixedOutcome(t *testing.T) {
	a := newTestAPI(t)
	first := a.seedElement(t, "en", "First Post")
	second := a.seedElement(t, "en", "Second Post")

	rec := a.do(t, http.MethodPost, "/translate/batch", BatchRequest{
		Items: []BatchItem{
			{Element: first, TargetLocales: []string{"es", "fr"}},
			{Element: second, TargetLocales: []string{"es", "en"}},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var summary model.BatchSummary
	decodeData(t, rec, &summary)

	// en -> en for the second element fails on its own; the other three
	// jobs still run.
	if summary.Total != 4 || summary.Succeeded != 3 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	for _, result := range summary.Results {
		if result.Status == model.JobStatusFailed && result.FailureCode != model.FailureUnsupportedLocalePair {
			t.Errorf("failure code = %q", result.FailureCode)
		}
	}

	missing := a.do(t, http.MethodPost, "/translate/batch", BatchRequest{
		Items: []BatchItem{{Element: model.ElementRef{ID: 9999, Kind: "post"}, TargetLocales: []string{"es"}}},
	})
	if missing.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown element status = %d, want 422", missing.Code)
	}
}

func TestDetachElement(t *testing.T) {
	a := newTestAPI(t)
	ref := a.seedElement(t, "en", "Detach Me")

	rec := a.do(t, http.MethodPost, fmt.Sprintf("/elements/post/%d/translate", ref.ID), TranslateRequest{
		TargetLocales: []string{"es"},
	})
	var summary model.BatchSummary
	decodeData(t, rec, &summary)
	if summary.Succeeded != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	copyRef := *summary.Results[0].Element

	det := a.do(t, http.MethodDelete, fmt.Sprintf("/elements/%s/%d/translations", copyRef.Kind, copyRef.ID), nil)
	if det.Code != http.StatusOK {
		t.Fatalf("detach status = %d, body = %s", det.Code, det.Body.String())
	}
	var resp DetachResponse
	decodeData(t, det, &resp)
	if resp.TRID == 0 {
		t.Errorf("detach response = %+v", resp)
	}

	again := a.do(t, http.MethodDelete, fmt.Sprintf("/elements/%s/%d/translations", copyRef.Kind, copyRef.ID), nil)
	if again.Code != http.StatusNotFound {
		t.Errorf("second detach status = %d, want 404", again.Code)
	}
}

func TestLanguageEndpoints(t *testing.T) {
	a := newTestAPI(t)

	list := a.do(t, http.MethodGet, "/languages", nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list status = %d", list.Code)
	}
	var langs []LanguageResponse
	decodeData(t, list, &langs)
	if len(langs) != 3 {
		t.Fatalf("seeded languages = %d, want 3", len(langs))
	}

	created := a.do(t, http.MethodPost, "/languages", CreateLanguageRequest{
		Code: "de", Name: "German", NativeName: "Deutsch", IsActive: true,
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", created.Code, created.Body.String())
	}

	dup := a.do(t, http.MethodPost, "/languages", CreateLanguageRequest{Code: "de", Name: "German"})
	if dup.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", dup.Code)
	}

	malformed := a.do(t, http.MethodPost, "/languages", CreateLanguageRequest{Code: "not a tag", Name: "Nope"})
	if malformed.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed code status = %d, want 422", malformed.Code)
	}

	deact := a.do(t, http.MethodPut, "/languages/es", UpdateLanguageRequest{IsActive: false})
	if deact.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d", deact.Code)
	}

	// New translations into a deactivated locale fail per job.
	ref := a.seedElement(t, "en", "After Deactivation")
	rec := a.do(t, http.MethodPost, fmt.Sprintf("/elements/post/%d/translate", ref.ID), TranslateRequest{
		TargetLocales: []string{"es"},
	})
	var summary model.BatchSummary
	decodeData(t, rec, &summary)
	if summary.Failed != 1 || summary.Results[0].FailureCode != model.FailureUnsupportedLocalePair {
		t.Errorf("summary after deactivation = %+v", summary)
	}

	missing := a.do(t, http.MethodPut, "/languages/zz", UpdateLanguageRequest{IsActive: true})
	if missing.Code != http.StatusNotFound {
		t.Errorf("unknown language status = %d, want 404", missing.Code)
	}
}
