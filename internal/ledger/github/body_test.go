// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package github

import (
	"testing"

	"github.com/alertledger/alertledger/internal/ledger"
)

func TestIssueBodyRoundTrip(t *testing.T) {
	t.Parallel()

	meta := testMetadata()
	got := extractMetadataFromBody(buildIssueBody(meta))

	if got.AlertID != meta.AlertID {
		t.Errorf("AlertID = %q, want %q", got.AlertID, meta.AlertID)
	}
	if got.Fingerprint != meta.Fingerprint {
		t.Errorf("Fingerprint = %q, want %q", got.Fingerprint, meta.Fingerprint)
	}
	if got.RuleID != meta.RuleID {
		t.Errorf("RuleID = %q, want %q", got.RuleID, meta.RuleID)
	}
	if got.Severity != meta.Severity {
		t.Errorf("Severity = %q, want %q", got.Severity, meta.Severity)
	}
	if got.AffectedFile != meta.AffectedFile {
		t.Errorf("AffectedFile = %q, want %q", got.AffectedFile, meta.AffectedFile)
	}
	if got.Branch != meta.Branch {
		t.Errorf("Branch = %q, want %q", got.Branch, meta.Branch)
	}
	if got.Line != meta.Line || got.Column != meta.Column {
		t.Errorf("Line/Column = %d/%d, want %d/%d", got.Line, got.Column, meta.Line, meta.Column)
	}
}

func TestExtractMetadataDefaults(t *testing.T) {
	t.Parallel()

	got := extractMetadataFromBody("an issue created by hand, no metadata block")

	if got.AlertID != "" || got.Fingerprint != "" {
		t.Errorf("identity fields should be empty, got %+v", got)
	}
	if got.Severity != ledger.SeverityMedium {
		t.Errorf("Severity = %q, want medium default", got.Severity)
	}
}

func TestIssueBodyOmitsZeroPosition(t *testing.T) {
	t.Parallel()

	meta := testMetadata()
	meta.Line = 0
	meta.Column = 0
	body := buildIssueBody(meta)

	got := extractMetadataFromBody(body)
	if got.Line != 0 || got.Column != 0 {
		t.Errorf("Line/Column = %d/%d, want omitted", got.Line, got.Column)
	}
}

func TestIssueTitleUppercasesSeverity(t *testing.T) {
	t.Parallel()

	meta := ledger.EntryMetadata{Severity: ledger.SeverityLow, RuleName: "Hardcoded Credentials"}
	if got := issueTitle(meta); got != "🚨 LOW: Hardcoded Credentials" {
		t.Errorf("issueTitle() = %q", got)
	}
}

func TestEntryFromIssueStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state string
		want  ledger.Status
	}{
		{"open", ledger.StatusCreated},
		{"closed", ledger.StatusFixed},
	}

	for _, tt := range tests {
		entry := entryFromIssue(apiIssue{Number: 1, State: tt.state}, ledger.EntryMetadata{})
		if entry.Status != tt.want {
			t.Errorf("state %q: Status = %q, want %q", tt.state, entry.Status, tt.want)
		}
	}
}
