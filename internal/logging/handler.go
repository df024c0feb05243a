// Package logging provides a slog handler that mirrors WARN and above
// into the database-backed event log for auditing.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/store"
)

// EventLogHandler wraps another slog.Handler and also writes records at
// or above its threshold to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewEventLogHandler creates a handler forwarding WARN and above to the
// event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeEvent(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), queries: h.queries, level: h.level}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), queries: h.queries, level: h.level}
}

// writeEvent persists one record. A background context is used so events
// survive request cancellation; write failures are swallowed because the
// event log must never take the service down.
func (h *EventLogHandler) writeEvent(r slog.Record) {
	ev := eventFromRecord(r)
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     ev.Level,
		Category:  ev.Category,
		Message:   ev.Message,
		Metadata:  ev.Metadata,
		CreatedAt: ev.CreatedAt,
	})
}

// eventFromRecord maps a log record onto the event model.
func eventFromRecord(r slog.Record) model.Event {
	return model.Event{
		Level:     eventLevel(r.Level),
		Category:  eventCategory(r),
		Message:   r.Message,
		Metadata:  eventMetadata(r),
		CreatedAt: r.Time,
	}
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// eventCategory reads an explicit "category" attribute, falling back to
// keyword inference over the message.
func eventCategory(r slog.Record) string {
	var category string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	})
	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "group") || strings.Contains(msg, "member"):
		return model.EventCategoryGraph
	case strings.Contains(msg, "translat") || strings.Contains(msg, "backend") || strings.Contains(msg, "batch"):
		return model.EventCategoryTranslate
	case strings.Contains(msg, "language") || strings.Contains(msg, "locale"):
		return model.EventCategoryRegistry
	case strings.Contains(msg, "webhook") || strings.Contains(msg, "delivery"):
		return model.EventCategoryWebhook
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	default:
		return model.EventCategorySystem
	}
}

// eventMetadata flattens the record attributes into a JSON object of
// string values.
func eventMetadata(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}
	attrs := make(map[string]string, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "category" {
			attrs[a.Key] = a.Value.String()
		}
		return true
	})
	out, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(out)
}
