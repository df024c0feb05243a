// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// Language is one row of the languages table.
type Language struct {
	ID         int64
	Code       string
	Name       string
	NativeName string
	IsDefault  bool
	IsActive   bool
	Direction  string
	Position   int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Element is one row of the elements table (the reference content store).
type Element struct {
	ID        int64
	Kind      string
	Locale    string
	Title     string
	Body      string
	Slug      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TranslationGroup is one row of the translation_groups table.
type TranslationGroup struct {
	Trid      int64
	CreatedAt time.Time
}

// GroupMember is one row of the group_members table.
type GroupMember struct {
	ID           int64
	Trid         int64
	ElementID    int64
	ElementKind  string
	Locale       string
	SourceLocale sql.NullString
	CreatedAt    time.Time
}

// ApiKey is one row of the api_keys table.
type ApiKey struct {
	ID          int64
	Name        string
	KeyHash     string
	KeyPrefix   string
	Permissions string
	LastUsedAt  sql.NullTime
	ExpiresAt   sql.NullTime
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event is one row of the events table.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}
