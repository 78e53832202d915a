// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package github

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alertledger/alertledger/internal/ledger"
)

// The issue body carries a machine-readable METADATA block so entries can be
// located by identity (alert id or fingerprint) via issue search, and their
// metadata recovered without external state. The field labels in that block
// are part of the lookup contract; changing them orphans existing issues.

const securityAlertLabel = "security-alert"

var (
	alertIDPattern     = regexp.MustCompile(`Alert ID: (.+)`)
	fingerprintPattern = regexp.MustCompile(`Fingerprint: (.+)`)
	ruleIDPattern      = regexp.MustCompile(`Rule ID: (.+)`)
	descriptionPattern = regexp.MustCompile(`\*\*Description:\*\* (.+)`)
	filePattern        = regexp.MustCompile("\\*\\*File:\\*\\* `(.+)`")
	branchPattern      = regexp.MustCompile("\\*\\*Branch:\\*\\* `(.+)`")
	linePattern        = regexp.MustCompile(`\*\*Line:\*\* (\d+)`)
	columnPattern      = regexp.MustCompile(`\*\*Column:\*\* (\d+)`)
	severityPattern    = regexp.MustCompile(`\*\*Severity:\*\* (.+)`)
	ruleNamePattern    = regexp.MustCompile(`\*\*Rule:\*\* (.+)`)
)

// issueTitle renders the entry title, e.g. "🚨 HIGH: SQL Injection".
func issueTitle(meta ledger.EntryMetadata) string {
	return fmt.Sprintf("🚨 %s: %s", strings.ToUpper(string(meta.Severity)), meta.RuleName)
}

// issueLabels returns the labels stamped on a new entry.
func issueLabels(meta ledger.EntryMetadata) []string {
	return []string{
		securityAlertLabel,
		"severity:" + string(meta.Severity),
		"rule:" + meta.RuleID,
	}
}

// buildIssueBody renders the human-readable alert details followed by the
// METADATA block.
func buildIssueBody(meta ledger.EntryMetadata) string {
	var b strings.Builder

	b.WriteString("## Security Alert Details\n\n")
	fmt.Fprintf(&b, "**Description:** %s\n\n", meta.Description)
	fmt.Fprintf(&b, "**File:** `%s`\n", meta.AffectedFile)
	fmt.Fprintf(&b, "**Branch:** `%s`\n", meta.Branch)
	if meta.Line > 0 {
		fmt.Fprintf(&b, "**Line:** %d\n", meta.Line)
	}
	if meta.Column > 0 {
		fmt.Fprintf(&b, "**Column:** %d\n", meta.Column)
	}
	fmt.Fprintf(&b, "**Severity:** %s\n", strings.ToUpper(string(meta.Severity)))
	fmt.Fprintf(&b, "**Rule:** %s\n\n", meta.RuleID)
	if meta.URL != "" {
		fmt.Fprintf(&b, "[View Alert](%s)\n\n", meta.URL)
	}
	b.WriteString("---\n")
	b.WriteString("<!-- METADATA -->\n")
	fmt.Fprintf(&b, "Alert ID: %s\n", meta.AlertID)
	fmt.Fprintf(&b, "Fingerprint: %s\n", meta.Fingerprint)
	fmt.Fprintf(&b, "Rule ID: %s\n", meta.RuleID)
	b.WriteString("<!-- /METADATA -->")

	return b.String()
}

func matchOne(re *regexp.Regexp, body string) string {
	m := re.FindStringSubmatch(body)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractMetadataFromBody recovers entry metadata from an issue body written
// by buildIssueBody. Missing fields come back zero-valued; an unparseable
// severity defaults to medium so downstream consumers always see a valid
// value.
func extractMetadataFromBody(body string) ledger.EntryMetadata {
	meta := ledger.EntryMetadata{
		AlertID:      matchOne(alertIDPattern, body),
		Fingerprint:  matchOne(fingerprintPattern, body),
		RuleID:       matchOne(ruleIDPattern, body),
		RuleName:     matchOne(ruleNamePattern, body),
		Description:  matchOne(descriptionPattern, body),
		AffectedFile: matchOne(filePattern, body),
		Branch:       matchOne(branchPattern, body),
	}

	severity := strings.ToLower(matchOne(severityPattern, body))
	if severity == "" {
		severity = string(ledger.SeverityMedium)
	}
	meta.Severity = ledger.Severity(severity)

	if line, err := strconv.Atoi(matchOne(linePattern, body)); err == nil {
		meta.Line = line
	}
	if column, err := strconv.Atoi(matchOne(columnPattern, body)); err == nil {
		meta.Column = column
	}

	return meta
}

// apiIssue is the subset of the GitHub issue payload the ledger consumes.
type apiIssue struct {
	Number    int        `json:"number"`
	State     string     `json:"state"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Labels    []apiLabel `json:"labels"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type apiLabel struct {
	Name string `json:"name"`
}

// entryFromIssue maps a GitHub issue onto a ledger entry. The coarse status
// mapping (open entries report created, closed entries fixed) reflects that
// the tracker stores no finer state; precise statuses live in labels and the
// comment trail.
func entryFromIssue(issue apiIssue, meta ledger.EntryMetadata) *ledger.Entry {
	status := ledger.StatusCreated
	if issue.State != "open" {
		status = ledger.StatusFixed
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.Name)
	}

	return &ledger.Entry{
		ID:        strconv.Itoa(issue.Number),
		Metadata:  meta,
		Status:    status,
		CreatedAt: issue.CreatedAt,
		UpdatedAt: issue.UpdatedAt,
		Labels:    labels,
	}
}
