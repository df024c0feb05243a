// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestSummarize(t *testing.T) {
	results := []JobResult{
		{Status: JobStatusSucceeded, TRID: 1},
		{Status: JobStatusSkipped, TRID: 1},
		{Status: JobStatusFailed, FailureCode: FailureRateLimited},
		{Status: JobStatusSucceeded, TRID: 2},
	}

	s := Summarize(results)
	if s.Total != 4 || s.Succeeded != 2 || s.Skipped != 1 || s.Failed != 1 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Results) != 4 {
		t.Errorf("Results length = %d, want input order preserved", len(s.Results))
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Succeeded != 0 || s.Skipped != 0 || s.Failed != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestJobResultFailed(t *testing.T) {
	if (JobResult{Status: JobStatusSkipped}).Failed() {
		t.Error("skipped is not a failure")
	}
	if !(JobResult{Status: JobStatusFailed, FailureCode: FailureInternal}).Failed() {
		t.Error("failed result should report Failed")
	}
}
