// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

// Package ledger defines the issue-ledger capability interface and the
// domain types shared by the webhook event path and the reconciliation
// sweep.
//
// The ledger is an external issue tracker (GitHub Issues in the shipped
// adapter, internal/ledger/github). The core never talks to a concrete
// backend; it consumes the IssueLedger interface so additional trackers can
// plug in without touching the transition logic.
package ledger

import (
	"context"
	"time"
)

// Severity is the internal severity scale for ledger entries.
// Scanner severities (error|warning|note) are mapped onto it at creation
// time by the engine.
type Severity string

// Internal severities.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityWarning  Severity = "warning"
	SeverityNote     Severity = "note"
)

// Status tracks the last transition applied to a ledger entry.
type Status string

// Entry statuses, one per webhook action.
const (
	StatusCreated          Status = "created"
	StatusAppearedInBranch Status = "appeared_in_branch"
	StatusFixed            Status = "fixed"
	StatusClosedByUser     Status = "closed_by_user"
	StatusReopened         Status = "reopened"
	StatusReopenedByUser   Status = "reopened_by_user"
)

// EntryMetadata is the alert snapshot embedded in a ledger entry at creation.
//
// AlertID is the scanner-assigned numeric id rendered as a string. It is NOT
// stable across re-scans of the same logical finding; Fingerprint (rule id +
// file path) is the stable identity. Branch records where the finding
// currently manifests, not what it is — two alerts with the same fingerprint
// on different branches are the same logical finding.
type EntryMetadata struct {
	AlertID      string   `json:"alert_id"`
	Fingerprint  string   `json:"fingerprint"`
	RuleID       string   `json:"rule_id"`
	RuleName     string   `json:"rule_name"`
	Severity     Severity `json:"severity"`
	Description  string   `json:"description"`
	AffectedFile string   `json:"affected_file"`
	Branch       string   `json:"branch"`
	Line         int      `json:"line,omitempty"`
	Column       int      `json:"column,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// Entry is an externally persisted ledger record for one alert.
// Entries are never deleted by this system; "closed" is a status.
type Entry struct {
	ID        string        `json:"id"`
	Metadata  EntryMetadata `json:"metadata"`
	Status    Status        `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Labels    []string      `json:"labels"`
}

// CreateRequest asks the ledger to persist a new entry.
type CreateRequest struct {
	Metadata EntryMetadata
}

// FindRequest identifies an entry by alert id and/or fingerprint.
// The backend must return the same logical entry regardless of which field
// matched, and at most one entry as authoritative.
type FindRequest struct {
	AlertID     string
	Fingerprint string
}

// UpdateRequest mutates an existing entry. Zero-value fields are left
// untouched by the backend.
type UpdateRequest struct {
	ID      string
	Status  Status
	Labels  []string
	Comment string
}

// Alert is an open finding as reported by the scanner's pull API, consumed
// by the reconciliation sweep. Alerts are immutable snapshots; the engine
// never mutates them.
type Alert struct {
	ID          int    `json:"id"`
	URL         string `json:"url"`
	HTMLURL     string `json:"html_url"`
	State       string `json:"state"` // open|dismissed|fixed
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // error|warning|note
	Ref         string `json:"ref"`
	AnalysisKey string `json:"analysis_key"`
	Path        string `json:"path"`
	StartLine   int    `json:"start_line,omitempty"`
	StartColumn int    `json:"start_column,omitempty"`
}

// IssueLedger is the capability interface consumed by the engine and the
// reconciliation sweep.
//
// FindByIdentity returns ErrNotFound when no entry matches; every other
// error is a backend failure. Callers must treat Create as find-or-create,
// never blind insert: the backend has no uniqueness constraint on identity.
//
// All methods are safe for concurrent use and honor context cancellation.
// Transport-level timeouts are the adapter's responsibility.
type IssueLedger interface {
	Create(ctx context.Context, req CreateRequest) (*Entry, error)
	FindByIdentity(ctx context.Context, req FindRequest) (*Entry, error)
	Update(ctx context.Context, req UpdateRequest) (*Entry, error)
	Close(ctx context.Context, id, reason string) (*Entry, error)
	Reopen(ctx context.Context, id, reason string) (*Entry, error)
	AddComment(ctx context.Context, id, comment string) error
	AddLabels(ctx context.Context, id string, labels []string) error

	// FetchOpenAlerts pulls all currently-open alerts from the scanner for
	// the reconciliation sweep.
	FetchOpenAlerts(ctx context.Context) ([]Alert, error)
}
