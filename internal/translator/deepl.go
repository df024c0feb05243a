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

// deepLProvider translates through the DeepL REST API.
type deepLProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewDeepL creates the DeepL backend. baseURL defaults to the free-tier
// API host when empty.
func NewDeepL(apiKey, baseURL string) Provider {
	if baseURL == "" {
		baseURL = "https://api-free.deepl.com/v2"
	}
	return &deepLProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

func (p *deepLProvider) ID() string { return BackendDeepL }

func (p *deepLProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	body := map[string]any{
		"text":         []string{req.Text},
		"source_lang":  strings.ToUpper(req.SourceLocale),
		"target_lang":  strings.ToUpper(req.TargetLocale),
		"tag_handling": "html",
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("deepl marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/translate", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("deepl request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: deepl: %v", ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: deepl read: %v", ErrBackendUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyDeepLStatus(resp.StatusCode, respBody)
	}

	var result struct {
		Translations []struct {
			Text                   string `json:"text"`
			DetectedSourceLanguage string `json:"detected_source_language"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("deepl decode: %w", err)
	}
	if len(result.Translations) == 0 {
		return nil, fmt.Errorf("%w: deepl returned no translations", ErrBackendUnavailable)
	}

	return &Result{Text: result.Translations[0].Text, Backend: BackendDeepL, Model: "deepl"}, nil
}

func classifyDeepLStatus(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusBadRequest:
		// DeepL reports unknown language codes as 400 with a message
		// naming the offending parameter.
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "source_lang") || strings.Contains(lower, "target_lang") {
			return fmt.Errorf("%w: deepl: %s", ErrUnsupportedLocalePair, msg)
		}
		return fmt.Errorf("%w: deepl: %s", ErrContentRejected, msg)
	case status == http.StatusTooManyRequests, status == 456, status >= http.StatusInternalServerError:
		// 456 is DeepL's quota-exceeded status.
		return fmt.Errorf("%w: deepl (status %d): %s", ErrBackendUnavailable, status, msg)
	default:
		return fmt.Errorf("deepl error (status %d): %s", status, msg)
	}
}
