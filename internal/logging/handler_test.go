package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/testutil"
)

func TestEventLogHandlerMirrorsWarnings(t *testing.T) {
	db := testutil.TestDB(t)
	handler := NewEventLogHandler(slog.NewTextHandler(io.Discard, nil), db)
	log := slog.New(handler)

	log.Info("just info, not persisted")
	log.Warn("translation backend fault", "backend", "deepl", "target", "es")
	log.Error("group mutation failed", "category", model.EventCategoryGraph, "trid", "7")

	rows, err := db.Query(`SELECT level, category, message, metadata FROM events ORDER BY id`)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	defer func() { _ = rows.Close() }()

	type event struct{ level, category, message, metadata string }
	var events []event
	for rows.Next() {
		var e event
		if err := rows.Scan(&e.level, &e.category, &e.message, &e.metadata); err != nil {
			t.Fatalf("scan: %v", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("persisted events = %d, want 2 (info stays out)", len(events))
	}

	warn := events[0]
	if warn.level != model.EventLevelWarning {
		t.Errorf("level = %q, want warning", warn.level)
	}
	if warn.category != model.EventCategoryTranslate {
		t.Errorf("inferred category = %q, want translate", warn.category)
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(warn.metadata), &meta); err != nil {
		t.Fatalf("metadata not JSON: %v", err)
	}
	if meta["backend"] != "deepl" {
		t.Errorf("metadata = %v", meta)
	}

	errEvent := events[1]
	if errEvent.level != model.EventLevelError || errEvent.category != model.EventCategoryGraph {
		t.Errorf("error event = %s/%s, want error/graph", errEvent.level, errEvent.category)
	}
}

func TestEventFromRecord(t *testing.T) {
	now := time.Now()
	r := slog.NewRecord(now, slog.LevelWarn, "webhook delivery failed", 0)
	r.AddAttrs(slog.String("endpoint", "api.example.com"), slog.Int("attempt", 3))

	ev := eventFromRecord(r)
	if ev.Level != model.EventLevelWarning {
		t.Errorf("level = %q, want warning", ev.Level)
	}
	if ev.Category != model.EventCategoryWebhook {
		t.Errorf("category = %q, want webhook", ev.Category)
	}
	if ev.Message != "webhook delivery failed" || !ev.CreatedAt.Equal(now) {
		t.Errorf("event = %+v", ev)
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(ev.Metadata), &meta); err != nil {
		t.Fatalf("metadata not JSON: %v", err)
	}
	if meta["endpoint"] != "api.example.com" || meta["attempt"] != "3" {
		t.Errorf("metadata = %v", meta)
	}

	// An explicit category attribute wins over inference and stays out of
	// the metadata.
	tagged := slog.NewRecord(now, slog.LevelError, "webhook delivery failed", 0)
	tagged.AddAttrs(slog.String("category", model.EventCategorySystem))
	ev2 := eventFromRecord(tagged)
	if ev2.Category != model.EventCategorySystem || ev2.Level != model.EventLevelError {
		t.Errorf("tagged event = %+v", ev2)
	}
}

func TestEventLogHandlerEnabled(t *testing.T) {
	db := testutil.TestDB(t)
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo})
	handler := NewEventLogHandler(inner, db)

	if !handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info must stay enabled on the inner handler")
	}
	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug must follow the inner handler's threshold")
	}
}
