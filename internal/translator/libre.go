// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// libreProvider translates through a LibreTranslate instance, typically
// self-hosted.
type libreProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewLibre creates the LibreTranslate backend. baseURL defaults to a
// local instance when empty.
func NewLibre(apiKey, baseURL string) Provider {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	return &libreProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

func (p *libreProvider) ID() string { return BackendLibre }

func (p *libreProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	body := map[string]any{
		"q":      req.Text,
		"source": req.SourceLocale,
		"target": req.TargetLocale,
		"format": "html",
	}
	if p.apiKey != "" {
		body["api_key"] = p.apiKey
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("libretranslate marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/translate", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("libretranslate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: libretranslate: %v", ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: libretranslate read: %v", ErrBackendUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyLibreStatus(resp.StatusCode, respBody)
	}

	var result struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("libretranslate decode: %w", err)
	}

	return &Result{Text: result.TranslatedText, Backend: BackendLibre, Model: "libretranslate"}, nil
}

func classifyLibreStatus(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusBadRequest:
		if strings.Contains(strings.ToLower(msg), "not supported") {
			return fmt.Errorf("%w: libretranslate: %s", ErrUnsupportedLocalePair, msg)
		}
		return fmt.Errorf("%w: libretranslate: %s", ErrContentRejected, msg)
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: libretranslate (status %d): %s", ErrBackendUnavailable, status, msg)
	default:
		return fmt.Errorf("libretranslate error (status %d): %s", status, msg)
	}
}
