package model

import "time"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryGraph     = "graph"
	EventCategoryTranslate = "translate"
	EventCategoryRegistry  = "registry"
	EventCategoryWebhook   = "webhook"
	EventCategoryCache     = "cache"
	EventCategorySystem    = "system"
)

// Event represents a system event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string // JSON string
	CreatedAt time.Time
}
