// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

// Package models defines the wire types shared by the HTTP layer: the
// inbound code-scanning webhook payload and the JSON response envelope.
package models

// CodeScanningAlertEvent is the code_scanning_alert webhook payload.
// Validation tags are enforced by internal/validation after decoding;
// a payload failing them is rejected with a 400 before dispatch.
type CodeScanningAlertEvent struct {
	Action     string          `json:"action" validate:"required"`
	Alert      WebhookAlert    `json:"alert" validate:"required"`
	Ref        string          `json:"ref" validate:"required"`
	CommitOID  string          `json:"commit_oid"`
	Repository EventRepository `json:"repository"`
}

// WebhookAlert is the alert object embedded in the webhook payload.
type WebhookAlert struct {
	ID                 int           `json:"id" validate:"required"`
	URL                string        `json:"url"`
	HTMLURL            string        `json:"html_url"`
	State              string        `json:"state" validate:"omitempty,oneof=open dismissed fixed"`
	Rule               AlertRule     `json:"rule" validate:"required"`
	MostRecentInstance AlertInstance `json:"most_recent_instance" validate:"required"`
}

// AlertRule describes the scanning rule that produced the alert.
type AlertRule struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// AlertInstance locates the most recent occurrence of the alert.
type AlertInstance struct {
	Ref         string        `json:"ref"`
	AnalysisKey string        `json:"analysis_key"`
	Location    AlertLocation `json:"location" validate:"required"`
}

// AlertLocation is the file position of an alert instance.
type AlertLocation struct {
	Path        string `json:"path" validate:"required"`
	StartLine   int    `json:"start_line,omitempty"`
	StartColumn int    `json:"start_column,omitempty"`
	EndLine     int    `json:"end_line,omitempty"`
	EndColumn   int    `json:"end_column,omitempty"`
}

// EventRepository identifies the repository the event belongs to.
type EventRepository struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}
