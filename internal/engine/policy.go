// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

// Package engine implements the alert-to-ledger synchronization core: the
// branch policy, the fingerprint identity scheme, the per-action event
// transitions, and the severity mapping. Both delivery channels — the
// webhook event path and the reconciliation sweep — drive their decisions
// through this package so they converge on the same result.
package engine

import "strings"

// Strategy selects which branches produce or update ledger entries.
type Strategy string

// Branch strategies.
const (
	// StrategyMainOnly tracks alerts on the main branch only.
	StrategyMainOnly Strategy = "main_only"

	// StrategyMainWithBranchUpdates creates entries for the main branch and
	// updates existing entries when alerts appear on other branches.
	StrategyMainWithBranchUpdates Strategy = "main_with_branch_updates"

	// StrategyAllBranches creates entries for alerts on any branch.
	StrategyAllBranches Strategy = "all_branches"
)

// ParseStrategy maps a configuration string to a Strategy.
// Unrecognized values fall back to main_only, the most conservative policy.
func ParseStrategy(s string) Strategy {
	switch strings.ToLower(s) {
	case string(StrategyAllBranches):
		return StrategyAllBranches
	case string(StrategyMainWithBranchUpdates):
		return StrategyMainWithBranchUpdates
	default:
		return StrategyMainOnly
	}
}

// Policy is the immutable branch policy configuration, constructed once at
// startup and passed into every component that filters by branch.
type Policy struct {
	Strategy   Strategy
	MainBranch string
}

// ShouldTrack reports whether an alert on the given branch should produce a
// ledger entry. It governs the created transition and the reconciliation
// sweep; it does NOT govern whether appeared_in_branch may update an
// existing entry (that is the processor's rule).
//
// Total over strings; no failure modes.
func (p Policy) ShouldTrack(branch string) bool {
	return ShouldTrack(p.Strategy, p.MainBranch, branch)
}

// ShouldTrack is the pure decision function behind Policy.ShouldTrack.
func ShouldTrack(strategy Strategy, mainBranch, branch string) bool {
	switch strategy {
	case StrategyAllBranches:
		return true
	case StrategyMainOnly, StrategyMainWithBranchUpdates:
		return branch == mainBranch
	default:
		return branch == mainBranch
	}
}

// BranchFromRef strips the refs/heads/ prefix from a git ref, yielding the
// branch name. Non-branch refs are returned unchanged.
func BranchFromRef(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}
