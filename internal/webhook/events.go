// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook fans translation lifecycle events out to configured
// HTTP endpoints through a bounded worker pool. Payloads are signed with
// HMAC-SHA256 so receivers can verify origin.
package webhook

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the engine.
const (
	// EventTranslationCompleted fires after a single translation job
	// reaches a terminal state.
	EventTranslationCompleted = "translation.completed"

	// EventBatchCompleted fires once per batch with the aggregate
	// summary.
	EventBatchCompleted = "batch.completed"

	// EventGroupDeleted fires when a translation group loses its last
	// member.
	EventGroupDeleted = "group.deleted"
)

// Event is the envelope delivered to endpoints.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Data      any       `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh delivery ID.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		CreatedAt: time.Now().UTC(),
		Data:      data,
	}
}
