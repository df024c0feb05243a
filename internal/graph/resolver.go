// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package graph

import (
	"context"
	"fmt"

	"github.com/olegiv/polyglot-go/internal/model"
)

// Outcome statuses reported by ResolveAndAttach.
const (
	OutcomeCreated  = "created"  // new group created, translation attached
	OutcomeAttached = "attached" // translation attached to an existing group
	OutcomeSkipped  = "skipped"  // target locale already had a member; nothing produced
)

// Outcome describes the result of one resolve-and-attach sequence.
type Outcome struct {
	Status  string
	TRID    int64
	Element model.ElementRef // the attached element, or the existing member when skipped
}

// ProduceFunc creates the translated element for the target locale. It is
// called only after the resolver has confirmed, under the group lock, that
// the locale is still free. It runs while the lock is held so a sibling
// job for the same group cannot interleave between the check and the
// attach.
type ProduceFunc func(ctx context.Context) (model.ElementRef, error)

// Resolver is the serialization boundary for group mutations. Every
// structural change to one group funnels through a per-trid lock (or,
// before the group exists, a per-source-element lock), so two concurrent
// writers can never both observe "locale free" and both attach.
type Resolver struct {
	store *Store
	locks *keyedMutex
}

// NewResolver creates a resolver over the graph store.
func NewResolver(store *Store) *Resolver {
	return &Resolver{
		store: store,
		locks: newKeyedMutex(),
	}
}

// Store returns the underlying graph store for read paths.
func (r *Resolver) Store() *Store {
	return r.store
}

// ResolveAndAttach ensures source's group has a member for targetLocale:
//
//  1. source has no group: create one with source as origin, then attach.
//  2. source has a group without targetLocale: attach.
//  3. targetLocale already present: skip, reporting the existing member.
//
// produce is invoked (still under the lock) only in cases 1 and 2; a
// skipped outcome never costs a translator call from this point on.
func (r *Resolver) ResolveAndAttach(ctx context.Context, source model.ElementRef, sourceLocale, targetLocale string, produce ProduceFunc) (Outcome, error) {
	unlock, group, err := r.lockGroup(ctx, source)
	if err != nil {
		return Outcome{}, err
	}
	defer unlock()

	if group != nil {
		if member, ok := group.Member(targetLocale); ok {
			return Outcome{
				Status:  OutcomeSkipped,
				TRID:    group.TRID,
				Element: member.Element,
			}, nil
		}
	}

	translated, err := produce(ctx)
	if err != nil {
		return Outcome{}, err
	}

	if group == nil {
		group, err = r.store.CreateGroup(ctx, source, sourceLocale)
		if err != nil {
			return Outcome{}, fmt.Errorf("creating group for %s: %w", source, err)
		}
		if err := r.store.AddMember(ctx, group.TRID, translated, targetLocale, &sourceLocale); err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: OutcomeCreated, TRID: group.TRID, Element: translated}, nil
	}

	if err := r.store.AddMember(ctx, group.TRID, translated, targetLocale, &sourceLocale); err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: OutcomeAttached, TRID: group.TRID, Element: translated}, nil
}

// Remove detaches element from its group under the group lock. Returns
// the trid and whether the group was deleted (zero members left).
func (r *Resolver) Remove(ctx context.Context, element model.ElementRef) (int64, bool, error) {
	unlock, group, err := r.lockGroup(ctx, element)
	if err != nil {
		return 0, false, err
	}
	defer unlock()

	if group == nil {
		return 0, false, ErrNotMember
	}

	deleted, err := r.store.RemoveMember(ctx, group.TRID, element)
	if err != nil {
		return 0, false, err
	}
	return group.TRID, deleted, nil
}

// lockGroup acquires the serialization token for element's group. Before
// the group exists the token is keyed by the element itself; once a group
// is found the token is re-acquired on the trid. The loop re-reads the
// group after each acquisition because another writer may have created it
// while we waited.
func (r *Resolver) lockGroup(ctx context.Context, element model.ElementRef) (func(), *model.TranslationGroup, error) {
	for {
		group, err := r.store.GetGroup(ctx, element)
		if err != nil {
			return nil, nil, err
		}

		key := "element:" + element.String()
		if group != nil {
			key = fmt.Sprintf("trid:%d", group.TRID)
		}

		unlock := r.locks.acquire(key)

		// Re-read under the lock; the ungrouped/grouped state may have
		// flipped while we waited on the token.
		current, err := r.store.GetGroup(ctx, element)
		if err != nil {
			unlock()
			return nil, nil, err
		}

		switch {
		case group == nil && current == nil:
			return unlock, nil, nil
		case group != nil && current != nil && group.TRID == current.TRID:
			return unlock, current, nil
		default:
			// State changed under us; retry on the right key.
			unlock()
		}
	}
}
