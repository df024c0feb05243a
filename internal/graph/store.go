// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package graph persists the mapping from elements to translation groups
// and enforces the group invariants: one locale per group, one group per
// element, exactly one origin member. Checks run inside transactions; the
// unique indexes on group_members are the storage-level backstop.
package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/store"
	"github.com/olegiv/polyglot-go/internal/util"
)

// Store is the translation graph store.
type Store struct {
	db      *sql.DB
	queries *store.Queries
}

// NewStore creates a graph store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		queries: store.New(db),
	}
}

// GetGroup returns the group the element belongs to, or nil if ungrouped.
func (s *Store) GetGroup(ctx context.Context, element model.ElementRef) (*model.TranslationGroup, error) {
	trid, err := s.queries.GetGroupIDByElement(ctx, store.GetGroupIDByElementParams{
		ElementID:   element.ID,
		ElementKind: element.Kind,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up group for %s: %w", element, err)
	}
	return s.GetGroupByID(ctx, trid)
}

// GetGroupByID returns the group with the given trid, or nil if none.
func (s *Store) GetGroupByID(ctx context.Context, trid int64) (*model.TranslationGroup, error) {
	createdAt, err := s.queries.GetGroupCreatedAt(ctx, trid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up group %d: %w", trid, err)
	}

	members, err := s.queries.ListGroupMembers(ctx, trid)
	if err != nil {
		return nil, fmt.Errorf("listing members of group %d: %w", trid, err)
	}

	group := &model.TranslationGroup{
		TRID:      trid,
		Members:   make(map[string]model.GroupMember, len(members)),
		CreatedAt: createdAt,
	}
	for _, m := range members {
		group.Members[m.Locale] = model.GroupMember{
			Element:      model.ElementRef{ID: m.ElementID, Kind: m.ElementKind},
			Locale:       m.Locale,
			SourceLocale: util.PtrFromNullString(m.SourceLocale),
			CreatedAt:    m.CreatedAt,
		}
	}
	return group, nil
}

// CreateGroup creates a new group whose origin member is (origin,
// originLocale). Fails with ErrAlreadyGrouped if the element already
// belongs to a group.
func (s *Store) CreateGroup(ctx context.Context, origin model.ElementRef, originLocale string) (*model.TranslationGroup, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)

	_, err = q.GetGroupIDByElement(ctx, store.GetGroupIDByElementParams{
		ElementID:   origin.ID,
		ElementKind: origin.Kind,
	})
	if err == nil {
		return nil, ErrAlreadyGrouped
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking group membership of %s: %w", origin, err)
	}

	now := time.Now()
	trid, err := q.CreateTranslationGroup(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	err = q.AddGroupMember(ctx, store.AddGroupMemberParams{
		Trid:        trid,
		ElementID:   origin.ID,
		ElementKind: origin.Kind,
		Locale:      originLocale,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, mapConstraintError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing group creation: %w", err)
	}

	return &model.TranslationGroup{
		TRID: trid,
		Members: map[string]model.GroupMember{
			originLocale: {
				Element:   origin,
				Locale:    originLocale,
				CreatedAt: now,
			},
		},
		CreatedAt: now,
	}, nil
}

// AddMember attaches element to the group under locale. sourceLocale
// records the member locale the translation was produced from and must
// name an existing member of the group when non-nil.
func (s *Store) AddMember(ctx context.Context, trid int64, element model.ElementRef, locale string, sourceLocale *string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)

	members, err := q.ListGroupMembers(ctx, trid)
	if err != nil {
		return fmt.Errorf("listing members of group %d: %w", trid, err)
	}
	if len(members) == 0 {
		// Either the trid never existed or the group row is gone.
		if _, err := q.GetGroupCreatedAt(ctx, trid); errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownGroup
		} else if err != nil {
			return fmt.Errorf("looking up group %d: %w", trid, err)
		}
	}

	sourceSeen := sourceLocale == nil
	for _, m := range members {
		if m.Locale == locale {
			return ErrLocaleTaken
		}
		if sourceLocale != nil && m.Locale == *sourceLocale {
			sourceSeen = true
		}
	}
	if !sourceSeen {
		return ErrInvalidSourceLocale
	}

	// Membership is exclusive across all groups, so the per-group
	// member list above is not enough.
	_, err = q.GetGroupIDByElement(ctx, store.GetGroupIDByElementParams{
		ElementID:   element.ID,
		ElementKind: element.Kind,
	})
	if err == nil {
		return ErrAlreadyGrouped
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking group membership of %s: %w", element, err)
	}

	err = q.AddGroupMember(ctx, store.AddGroupMemberParams{
		Trid:         trid,
		ElementID:    element.ID,
		ElementKind:  element.Kind,
		Locale:       locale,
		SourceLocale: util.NullStringFromPtr(sourceLocale),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return mapConstraintError(err)
	}

	return tx.Commit()
}

// RemoveMember detaches element from the group. When the removal leaves
// zero members the group itself is deleted; the first return reports that.
// Removing the origin does not reassign the origin relation: remaining
// members keep their recorded source locale as a historical fact.
func (s *Store) RemoveMember(ctx context.Context, trid int64, element model.ElementRef) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)

	if _, err := q.GetGroupCreatedAt(ctx, trid); errors.Is(err, sql.ErrNoRows) {
		return false, ErrUnknownGroup
	} else if err != nil {
		return false, fmt.Errorf("looking up group %d: %w", trid, err)
	}

	err = q.DeleteGroupMember(ctx, store.DeleteGroupMemberParams{
		Trid:        trid,
		ElementID:   element.ID,
		ElementKind: element.Kind,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotMember
	}
	if err != nil {
		return false, fmt.Errorf("removing member %s from group %d: %w", element, trid, err)
	}

	remaining, err := q.CountGroupMembers(ctx, trid)
	if err != nil {
		return false, fmt.Errorf("counting members of group %d: %w", trid, err)
	}

	deleted := false
	if remaining == 0 {
		if err := q.DeleteTranslationGroup(ctx, trid); err != nil {
			return false, fmt.Errorf("deleting empty group %d: %w", trid, err)
		}
		deleted = true
	}

	return deleted, tx.Commit()
}

// mapConstraintError translates unique-index violations into the typed
// taxonomy. The in-transaction checks normally catch these first; the
// indexes exist for writers that race past the keyed locks.
func mapConstraintError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "group_members.trid") && strings.Contains(msg, "group_members.locale"):
		return ErrLocaleTaken
	case strings.Contains(msg, "group_members.element_id"):
		return ErrAlreadyGrouped
	default:
		return err
	}
}
