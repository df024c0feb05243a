// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Job statuses. A job moves pending -> in_flight -> one of the terminal
// states. Skipped is terminal and distinct from failed: it marks an
// idempotent no-op where the target locale already had a member.
const (
	JobStatusPending   = "pending"
	JobStatusInFlight  = "in_flight"
	JobStatusSucceeded = "succeeded"
	JobStatusSkipped   = "skipped"
	JobStatusFailed    = "failed"
)

// Failure codes carried on failed job results.
const (
	FailureBackendUnavailable    = "backend_unavailable"
	FailureUnsupportedLocalePair = "unsupported_locale_pair"
	FailureContentRejected       = "content_rejected"
	FailureAlreadyGrouped        = "already_grouped"
	FailureLocaleTaken           = "locale_taken"
	FailureUnknownGroup          = "unknown_group"
	FailureInvalidSourceLocale   = "invalid_source_locale"
	FailureRateLimited           = "rate_limited"
	FailureCancelled             = "cancelled"
	FailureInternal              = "internal"
)

// Job is one unit of batch work: translate one source element into one
// target locale. Ephemeral; never persisted beyond the batch.
type Job struct {
	Source       ElementRef `json:"source"`
	TargetLocale string     `json:"target_locale"`
	Backend      string     `json:"backend"`
}

// JobResult is the per-job outcome returned to the caller, in input order.
type JobResult struct {
	Source       ElementRef  `json:"source"`
	TargetLocale string      `json:"target_locale"`
	Status       string      `json:"status"`
	Element      *ElementRef `json:"element,omitempty"` // created (succeeded) or existing (skipped) member
	TRID         int64       `json:"trid,omitempty"`
	FailureCode  string      `json:"failure_code,omitempty"`
	FailureMsg   string      `json:"failure_message,omitempty"`
}

// Failed reports whether the result is a failure.
func (r JobResult) Failed() bool {
	return r.Status == JobStatusFailed
}

// BatchSummary aggregates a batch run: counts plus the full per-job
// detail list. No partial results are ever dropped.
type BatchSummary struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Skipped   int         `json:"skipped"`
	Failed    int         `json:"failed"`
	Results   []JobResult `json:"results"`
}

// Summarize builds a BatchSummary from per-job results.
func Summarize(results []JobResult) BatchSummary {
	s := BatchSummary{Total: len(results), Results: results}
	for _, r := range results {
		switch r.Status {
		case JobStatusSucceeded:
			s.Succeeded++
		case JobStatusSkipped:
			s.Skipped++
		case JobStatusFailed:
			s.Failed++
		}
	}
	return s
}
