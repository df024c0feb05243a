// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package graph

import "errors"

// Graph store error taxonomy. All are permanent, logical failures: the
// batch orchestrator maps them to per-job failures, never to a whole-batch
// abort.
var (
	// ErrAlreadyGrouped means the element already belongs to a group.
	ErrAlreadyGrouped = errors.New("element already belongs to a translation group")

	// ErrLocaleTaken means the group already has a member for the locale.
	ErrLocaleTaken = errors.New("locale already has a member in this group")

	// ErrUnknownGroup means no group exists for the given trid.
	ErrUnknownGroup = errors.New("unknown translation group")

	// ErrInvalidSourceLocale means the claimed source locale is not itself
	// a member of the group.
	ErrInvalidSourceLocale = errors.New("source locale is not a member of the group")

	// ErrNotMember means the element is not a member of the given group.
	ErrNotMember = errors.New("element is not a member of the group")
)
