// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides SQLite persistence: connection setup, embedded
// migrations, and the query layer used by the rest of the engine.
package store

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the subset of *sql.DB / *sql.Tx the query layer needs, so the
// same methods run inside and outside transactions.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries exposes typed database operations.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// ---- languages ----

const listLanguages = `
SELECT id, code, name, native_name, is_default, is_active, direction, position, created_at, updated_at
FROM languages ORDER BY position, code
`

// ListLanguages returns all languages ordered by position.
func (q *Queries) ListLanguages(ctx context.Context) ([]Language, error) {
	rows, err := q.db.QueryContext(ctx, listLanguages)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var langs []Language
	for rows.Next() {
		var l Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.NativeName, &l.IsDefault, &l.IsActive,
			&l.Direction, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

const getLanguageByCode = `
SELECT id, code, name, native_name, is_default, is_active, direction, position, created_at, updated_at
FROM languages WHERE code = ?
`

// GetLanguageByCode returns the language with the given code.
func (q *Queries) GetLanguageByCode(ctx context.Context, code string) (Language, error) {
	var l Language
	err := q.db.QueryRowContext(ctx, getLanguageByCode, code).
		Scan(&l.ID, &l.Code, &l.Name, &l.NativeName, &l.IsDefault, &l.IsActive,
			&l.Direction, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// CreateLanguageParams holds parameters for CreateLanguage.
type CreateLanguageParams struct {
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

const createLanguage = `
INSERT INTO languages (code, name, native_name, is_default, is_active, direction, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, code, name, native_name, is_default, is_active, direction, position, created_at, updated_at
`

// CreateLanguage inserts a language row.
func (q *Queries) CreateLanguage(ctx context.Context, arg CreateLanguageParams) (Language, error) {
	var l Language
	err := q.db.QueryRowContext(ctx, createLanguage,
		arg.Code, arg.Name, arg.NativeName, arg.IsDefault, arg.IsActive,
		arg.Direction, arg.Position, arg.CreatedAt, arg.UpdatedAt).
		Scan(&l.ID, &l.Code, &l.Name, &l.NativeName, &l.IsDefault, &l.IsActive,
			&l.Direction, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// UpdateLanguageActiveParams holds parameters for UpdateLanguageActive.
type UpdateLanguageActiveParams struct {
	IsActive  bool
	UpdatedAt time.Time
	Code      string
}

const updateLanguageActive = `
UPDATE languages SET is_active = ?, updated_at = ? WHERE code = ?
`

// UpdateLanguageActive toggles a language's active flag.
func (q *Queries) UpdateLanguageActive(ctx context.Context, arg UpdateLanguageActiveParams) error {
	res, err := q.db.ExecContext(ctx, updateLanguageActive, arg.IsActive, arg.UpdatedAt, arg.Code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const countLanguages = `SELECT COUNT(*) FROM languages`

// CountLanguages returns the number of language rows.
func (q *Queries) CountLanguages(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countLanguages).Scan(&n)
	return n, err
}

// ---- elements ----

// CreateElementParams holds parameters for CreateElement.
type CreateElementParams struct {
	Kind      string
	Locale    string
	Title     string
	Body      string
	Slug      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const createElement = `
INSERT INTO elements (kind, locale, title, body, slug, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, kind, locale, title, body, slug, status, created_at, updated_at
`

// CreateElement inserts an element row.
func (q *Queries) CreateElement(ctx context.Context, arg CreateElementParams) (Element, error) {
	var e Element
	err := q.db.QueryRowContext(ctx, createElement,
		arg.Kind, arg.Locale, arg.Title, arg.Body, arg.Slug, arg.Status, arg.CreatedAt, arg.UpdatedAt).
		Scan(&e.ID, &e.Kind, &e.Locale, &e.Title, &e.Body, &e.Slug, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// GetElementParams identifies an element by ID and kind.
type GetElementParams struct {
	ID   int64
	Kind string
}

const getElement = `
SELECT id, kind, locale, title, body, slug, status, created_at, updated_at
FROM elements WHERE id = ? AND kind = ?
`

// GetElement returns one element.
func (q *Queries) GetElement(ctx context.Context, arg GetElementParams) (Element, error) {
	var e Element
	err := q.db.QueryRowContext(ctx, getElement, arg.ID, arg.Kind).
		Scan(&e.ID, &e.Kind, &e.Locale, &e.Title, &e.Body, &e.Slug, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

const countElementSlug = `
SELECT COUNT(*) FROM elements WHERE kind = ? AND locale = ? AND slug = ?
`

// CountElementSlug returns how many elements already use the slug within
// one (kind, locale) namespace.
func (q *Queries) CountElementSlug(ctx context.Context, kind, locale, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countElementSlug, kind, locale, slug).Scan(&n)
	return n, err
}

const deleteElement = `DELETE FROM elements WHERE id = ? AND kind = ?`

// DeleteElement removes an element row.
func (q *Queries) DeleteElement(ctx context.Context, arg GetElementParams) error {
	_, err := q.db.ExecContext(ctx, deleteElement, arg.ID, arg.Kind)
	return err
}

// ---- translation groups ----

const createTranslationGroup = `
INSERT INTO translation_groups (created_at) VALUES (?) RETURNING trid
`

// CreateTranslationGroup inserts a group row and returns its trid.
func (q *Queries) CreateTranslationGroup(ctx context.Context, createdAt time.Time) (int64, error) {
	var trid int64
	err := q.db.QueryRowContext(ctx, createTranslationGroup, createdAt).Scan(&trid)
	return trid, err
}

const getGroupCreatedAt = `SELECT created_at FROM translation_groups WHERE trid = ?`

// GetGroupCreatedAt returns the creation time of a group.
func (q *Queries) GetGroupCreatedAt(ctx context.Context, trid int64) (time.Time, error) {
	var t time.Time
	err := q.db.QueryRowContext(ctx, getGroupCreatedAt, trid).Scan(&t)
	return t, err
}

// GetGroupIDByElementParams identifies an element for group lookup.
type GetGroupIDByElementParams struct {
	ElementID   int64
	ElementKind string
}

const getGroupIDByElement = `
SELECT trid FROM group_members WHERE element_id = ? AND element_kind = ?
`

// GetGroupIDByElement returns the trid of the group the element belongs to.
func (q *Queries) GetGroupIDByElement(ctx context.Context, arg GetGroupIDByElementParams) (int64, error) {
	var trid int64
	err := q.db.QueryRowContext(ctx, getGroupIDByElement, arg.ElementID, arg.ElementKind).Scan(&trid)
	return trid, err
}

const listGroupMembers = `
SELECT id, trid, element_id, element_kind, locale, source_locale, created_at
FROM group_members WHERE trid = ? ORDER BY created_at, id
`

// ListGroupMembers returns all members of a group.
func (q *Queries) ListGroupMembers(ctx context.Context, trid int64) ([]GroupMember, error) {
	rows, err := q.db.QueryContext(ctx, listGroupMembers, trid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []GroupMember
	for rows.Next() {
		var m GroupMember
		if err := rows.Scan(&m.ID, &m.Trid, &m.ElementID, &m.ElementKind, &m.Locale,
			&m.SourceLocale, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddGroupMemberParams holds parameters for AddGroupMember.
type AddGroupMemberParams struct {
	Trid         int64
	ElementID    int64
	ElementKind  string
	Locale       string
	SourceLocale sql.NullString
	CreatedAt    time.Time
}

const addGroupMember = `
INSERT INTO group_members (trid, element_id, element_kind, locale, source_locale, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

// AddGroupMember inserts a member row.
func (q *Queries) AddGroupMember(ctx context.Context, arg AddGroupMemberParams) error {
	_, err := q.db.ExecContext(ctx, addGroupMember,
		arg.Trid, arg.ElementID, arg.ElementKind, arg.Locale, arg.SourceLocale, arg.CreatedAt)
	return err
}

// DeleteGroupMemberParams identifies a member row by group and element.
type DeleteGroupMemberParams struct {
	Trid        int64
	ElementID   int64
	ElementKind string
}

const deleteGroupMember = `
DELETE FROM group_members WHERE trid = ? AND element_id = ? AND element_kind = ?
`

// DeleteGroupMember removes one member row.
func (q *Queries) DeleteGroupMember(ctx context.Context, arg DeleteGroupMemberParams) error {
	res, err := q.db.ExecContext(ctx, deleteGroupMember, arg.Trid, arg.ElementID, arg.ElementKind)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const countGroupMembers = `SELECT COUNT(*) FROM group_members WHERE trid = ?`

// CountGroupMembers returns the number of members in a group.
func (q *Queries) CountGroupMembers(ctx context.Context, trid int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countGroupMembers, trid).Scan(&n)
	return n, err
}

const deleteTranslationGroup = `DELETE FROM translation_groups WHERE trid = ?`

// DeleteTranslationGroup removes a group row; member rows cascade.
func (q *Queries) DeleteTranslationGroup(ctx context.Context, trid int64) error {
	_, err := q.db.ExecContext(ctx, deleteTranslationGroup, trid)
	return err
}

// ---- api keys ----

const getAPIKeyByHash = `
SELECT id, name, key_hash, key_prefix, permissions, last_used_at, expires_at, is_active, created_at, updated_at
FROM api_keys WHERE key_hash = ?
`

// GetAPIKeyByHash returns the API key with the given hash.
func (q *Queries) GetAPIKeyByHash(ctx context.Context, keyHash string) (ApiKey, error) {
	var k ApiKey
	err := q.db.QueryRowContext(ctx, getAPIKeyByHash, keyHash).
		Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Permissions,
			&k.LastUsedAt, &k.ExpiresAt, &k.IsActive, &k.CreatedAt, &k.UpdatedAt)
	return k, err
}

// CreateAPIKeyParams holds parameters for CreateAPIKey.
type CreateAPIKeyParams struct {
	Name        string
	KeyHash     string
	KeyPrefix   string
	Permissions string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const createAPIKey = `
INSERT INTO api_keys (name, key_hash, key_prefix, permissions, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, name, key_hash, key_prefix, permissions, last_used_at, expires_at, is_active, created_at, updated_at
`

// CreateAPIKey inserts an API key row.
func (q *Queries) CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (ApiKey, error) {
	var k ApiKey
	err := q.db.QueryRowContext(ctx, createAPIKey,
		arg.Name, arg.KeyHash, arg.KeyPrefix, arg.Permissions, arg.IsActive, arg.CreatedAt, arg.UpdatedAt).
		Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Permissions,
			&k.LastUsedAt, &k.ExpiresAt, &k.IsActive, &k.CreatedAt, &k.UpdatedAt)
	return k, err
}

// UpdateAPIKeyLastUsedParams holds parameters for UpdateAPIKeyLastUsed.
type UpdateAPIKeyLastUsedParams struct {
	LastUsedAt sql.NullTime
	ID         int64
}

const updateAPIKeyLastUsed = `UPDATE api_keys SET last_used_at = ? WHERE id = ?`

// UpdateAPIKeyLastUsed stamps the key's last use.
func (q *Queries) UpdateAPIKeyLastUsed(ctx context.Context, arg UpdateAPIKeyLastUsedParams) error {
	_, err := q.db.ExecContext(ctx, updateAPIKeyLastUsed, arg.LastUsedAt, arg.ID)
	return err
}

const countAPIKeys = `SELECT COUNT(*) FROM api_keys`

// CountAPIKeys returns the number of API key rows.
func (q *Queries) CountAPIKeys(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countAPIKeys).Scan(&n)
	return n, err
}

// ---- events ----

// CreateEventParams holds parameters for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

const createEvent = `
INSERT INTO events (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, level, category, message, metadata, created_at
`

// CreateEvent inserts an event row.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	var e Event
	err := q.db.QueryRowContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt).
		Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt)
	return e, err
}
