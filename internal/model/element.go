// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "fmt"

// Element kinds recognized by the engine. The content store owns the
// elements themselves; the engine only holds references.
const (
	ElementKindPost   = "post"
	ElementKindPage   = "page"
	ElementKindString = "string"
	ElementKindField  = "field"
)

// KnownElementKinds returns all recognized element kinds.
func KnownElementKinds() []string {
	return []string{ElementKindPost, ElementKindPage, ElementKindString, ElementKindField}
}

// IsKnownElementKind reports whether kind is one of the recognized element kinds.
func IsKnownElementKind(kind string) bool {
	for _, k := range KnownElementKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// ElementRef identifies one piece of translatable content owned by the
// external content store: a stable external ID plus an element-kind tag.
type ElementRef struct {
	ID   int64  `json:"id"`
	Kind string `json:"kind"`
}

// String returns the canonical "kind:id" form used in logs and lock keys.
func (e ElementRef) String() string {
	return fmt.Sprintf("%s:%d", e.Kind, e.ID)
}

// Validate checks that the reference carries a positive ID and a known
// element kind.
func (e ElementRef) Validate() error {
	if e.ID <= 0 {
		return fmt.Errorf("element id must be positive, got %d", e.ID)
	}
	if !IsKnownElementKind(e.Kind) {
		return fmt.Errorf("unknown element kind %q", e.Kind)
	}
	return nil
}

// IsZero reports whether the reference is unset.
func (e ElementRef) IsZero() bool {
	return e.ID == 0 && e.Kind == ""
}
