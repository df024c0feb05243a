// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// GroupMember is one (locale, element) pair inside a translation group.
// SourceLocale points to the locale this member was translated from; the
// group origin has none.
type GroupMember struct {
	Element      ElementRef `json:"element"`
	Locale       string     `json:"locale"`
	SourceLocale *string    `json:"source_locale,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsOrigin reports whether the member is the group's original content.
func (m GroupMember) IsOrigin() bool {
	return m.SourceLocale == nil
}

// TranslationGroup is the set of elements that are translations of one
// another, keyed by trid. Within a group each locale appears at most once,
// and each element belongs to at most one group.
type TranslationGroup struct {
	TRID      int64                  `json:"trid"`
	Members   map[string]GroupMember `json:"members"` // keyed by locale
	CreatedAt time.Time              `json:"created_at"`
}

// HasLocale reports whether the group already holds a member for locale.
func (g *TranslationGroup) HasLocale(locale string) bool {
	_, ok := g.Members[locale]
	return ok
}

// Member returns the member for locale, if present.
func (g *TranslationGroup) Member(locale string) (GroupMember, bool) {
	m, ok := g.Members[locale]
	return m, ok
}

// Origin returns the member with no source relation. The second return is
// false only for a group read mid-removal; a persisted group with members
// always has exactly one origin.
func (g *TranslationGroup) Origin() (GroupMember, bool) {
	for _, m := range g.Members {
		if m.IsOrigin() {
			return m, true
		}
	}
	return GroupMember{}, false
}

// Locales returns the locales present in the group.
func (g *TranslationGroup) Locales() []string {
	locales := make([]string, 0, len(g.Members))
	for locale := range g.Members {
		locales = append(locales, locale)
	}
	return locales
}

// Size returns the number of members.
func (g *TranslationGroup) Size() int {
	return len(g.Members)
}
