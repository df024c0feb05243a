// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const openAIDefaultModel = "gpt-4o-mini"

// openAIProvider translates through the OpenAI chat completions API.
type openAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAI creates the OpenAI backend. baseURL overrides the API host
// for tests and compatible gateways; empty means the public API.
func NewOpenAI(apiKey, model, baseURL string) Provider {
	if model == "" {
		model = openAIDefaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (p *openAIProvider) ID() string { return BackendOpenAI }

func (p *openAIProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	system := fmt.Sprintf(
		"You are a translation engine. Translate the user's text from %s to %s. "+
			"Preserve HTML tags and markdown structure. Reply with the translation only.",
		req.SourceLocale, req.TargetLocale)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(req.Text),
		},
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", ErrBackendUnavailable)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: openai returned empty translation", ErrContentRejected)
	}

	return &Result{Text: text, Backend: BackendOpenAI, Model: resp.Model}, nil
}

// classifyOpenAIError maps SDK errors onto the shared error classes.
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusBadRequest:
			return fmt.Errorf("%w: openai: %v", ErrContentRejected, err)
		case apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: openai: %v", ErrBackendUnavailable, err)
		}
		return fmt.Errorf("openai: %w", err)
	}
	// Transport-level failure, no HTTP status to go on.
	return fmt.Errorf("%w: openai: %v", ErrBackendUnavailable, err)
}
