// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package engine

import "testing"

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Strategy
	}{
		{"main_only", StrategyMainOnly},
		{"main_with_branch_updates", StrategyMainWithBranchUpdates},
		{"all_branches", StrategyAllBranches},
		{"ALL_BRANCHES", StrategyAllBranches},
		{"", StrategyMainOnly},
		{"something_else", StrategyMainOnly},
	}

	for _, tt := range tests {
		if got := ParseStrategy(tt.input); got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestShouldTrack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		strategy Strategy
		branch   string
		want     bool
	}{
		{"main_only tracks main", StrategyMainOnly, "main", true},
		{"main_only skips feature branch", StrategyMainOnly, "feature/login", false},
		{"main_with_branch_updates tracks main", StrategyMainWithBranchUpdates, "main", true},
		{"main_with_branch_updates skips feature branch", StrategyMainWithBranchUpdates, "feature/login", false},
		{"all_branches tracks main", StrategyAllBranches, "main", true},
		{"all_branches tracks feature branch", StrategyAllBranches, "feature/login", true},
		{"all_branches tracks empty branch", StrategyAllBranches, "", true},
		{"unknown strategy falls back to main comparison", Strategy("bogus"), "main", true},
		{"unknown strategy skips other branches", Strategy("bogus"), "dev", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			policy := Policy{Strategy: tt.strategy, MainBranch: "main"}
			if got := policy.ShouldTrack(tt.branch); got != tt.want {
				t.Errorf("ShouldTrack(%q) with %s = %v, want %v", tt.branch, tt.strategy, got, tt.want)
			}
		})
	}
}

func TestShouldTrackCustomMainBranch(t *testing.T) {
	t.Parallel()

	policy := Policy{Strategy: StrategyMainOnly, MainBranch: "trunk"}
	if !policy.ShouldTrack("trunk") {
		t.Error("expected trunk to be tracked when it is the main branch")
	}
	if policy.ShouldTrack("main") {
		t.Error("expected main to be skipped when trunk is the main branch")
	}
}

func TestBranchFromRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref  string
		want string
	}{
		{"refs/heads/main", "main"},
		{"refs/heads/feature/login", "feature/login"},
		{"main", "main"},
		{"refs/tags/v1.0.0", "refs/tags/v1.0.0"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := BranchFromRef(tt.ref); got != tt.want {
			t.Errorf("BranchFromRef(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	if got := Fingerprint("js/sql-injection", "src/db.ts"); got != "js/sql-injection-src/db.ts" {
		t.Errorf("Fingerprint = %q, want %q", got, "js/sql-injection-src/db.ts")
	}
	if got := Fingerprint("", ""); got != "-" {
		t.Errorf("Fingerprint of empty inputs = %q, want %q", got, "-")
	}
}
