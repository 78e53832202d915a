// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alertledger/alertledger/internal/ledger"
	"github.com/alertledger/alertledger/internal/logging"
	"github.com/alertledger/alertledger/internal/metrics"
)

type searchResult struct {
	TotalCount int        `json:"total_count"`
	Items      []apiIssue `json:"items"`
}

// Create opens a new issue for the alert. The caller is responsible for the
// find-before-create dance; this method always inserts.
func (c *Client) Create(ctx context.Context, req ledger.CreateRequest) (*ledger.Entry, error) {
	start := time.Now()

	payload := map[string]interface{}{
		"title":  issueTitle(req.Metadata),
		"body":   buildIssueBody(req.Metadata),
		"labels": issueLabels(req.Metadata),
	}

	var issue apiIssue
	err := c.doJSON(ctx, http.MethodPost, c.repoPath("/issues"), nil, payload, &issue)
	metrics.RecordLedgerCall("create", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	metrics.LedgerEntriesCreated.Inc()
	return entryFromIssue(issue, req.Metadata), nil
}

// FindByIdentity locates the entry for an alert by searching issue bodies
// for the METADATA block fields. When the search is ambiguous the most
// recently created issue wins and the ambiguity is logged.
func (c *Client) FindByIdentity(ctx context.Context, req ledger.FindRequest) (*ledger.Entry, error) {
	start := time.Now()

	query := fmt.Sprintf(`repo:%s/%s is:issue "Alert ID: %s" OR "Fingerprint: %s"`,
		c.owner, c.repo, req.AlertID, req.Fingerprint)

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "created")
	params.Set("order", "desc")

	var result searchResult
	err := c.doJSON(ctx, http.MethodGet, "/search/issues", params, nil, &result)
	metrics.RecordLedgerCall("find", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, ledger.ErrNotFound
	}
	if result.TotalCount > 1 {
		logging.Warn().
			Str("alert_id", req.AlertID).
			Str("fingerprint", req.Fingerprint).
			Int("matches", result.TotalCount).
			Msg("Multiple issues match alert identity, using most recent")
	}

	// Search results carry a truncated body; re-fetch the full issue so the
	// METADATA block is intact.
	return c.getEntry(ctx, result.Items[0].Number)
}

// Update applies label additions and a comment, then re-reads the issue.
// Status changes are tracker-side state only when they imply open/closed;
// richer statuses are recorded via labels and comments by the caller.
func (c *Client) Update(ctx context.Context, req ledger.UpdateRequest) (*ledger.Entry, error) {
	start := time.Now()

	number, err := issueNumber(req.ID)
	if err != nil {
		return nil, err
	}

	if len(req.Labels) > 0 {
		if err := c.AddLabels(ctx, req.ID, req.Labels); err != nil {
			return nil, err
		}
	}
	if req.Comment != "" {
		if err := c.AddComment(ctx, req.ID, req.Comment); err != nil {
			return nil, err
		}
	}

	entry, err := c.getEntry(ctx, number)
	metrics.RecordLedgerCall("update", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if req.Status != "" {
		entry.Status = req.Status
	}
	return entry, nil
}

// Close closes the issue, leaving a "Closed: <reason>" comment when a reason
// is given.
func (c *Client) Close(ctx context.Context, id, reason string) (*ledger.Entry, error) {
	return c.setState(ctx, "close", id, "closed", "Closed", reason)
}

// Reopen reopens the issue, leaving a "Reopened: <reason>" comment when a
// reason is given.
func (c *Client) Reopen(ctx context.Context, id, reason string) (*ledger.Entry, error) {
	return c.setState(ctx, "reopen", id, "open", "Reopened", reason)
}

func (c *Client) setState(ctx context.Context, op, id, state, prefix, reason string) (*ledger.Entry, error) {
	start := time.Now()

	number, err := issueNumber(id)
	if err != nil {
		return nil, err
	}

	if reason != "" {
		if err := c.AddComment(ctx, id, fmt.Sprintf("%s: %s", prefix, reason)); err != nil {
			return nil, err
		}
	}

	payload := map[string]string{"state": state}
	var issue apiIssue
	err = c.doJSON(ctx, http.MethodPatch, c.repoPath("/issues/%d", number), nil, payload, &issue)
	metrics.RecordLedgerCall(op, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s issue %d: %w", op, number, err)
	}

	return entryFromIssue(issue, extractMetadataFromBody(issue.Body)), nil
}

// AddComment appends a comment to the issue's trail.
func (c *Client) AddComment(ctx context.Context, id, comment string) error {
	start := time.Now()

	number, err := issueNumber(id)
	if err != nil {
		return err
	}

	payload := map[string]string{"body": comment}
	err = c.doJSON(ctx, http.MethodPost, c.repoPath("/issues/%d/comments", number), nil, payload, nil)
	metrics.RecordLedgerCall("comment", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("comment on issue %d: %w", number, err)
	}
	return nil
}

// AddLabels adds labels to the issue, preserving existing ones.
func (c *Client) AddLabels(ctx context.Context, id string, labels []string) error {
	start := time.Now()

	number, err := issueNumber(id)
	if err != nil {
		return err
	}

	payload := map[string][]string{"labels": labels}
	err = c.doJSON(ctx, http.MethodPost, c.repoPath("/issues/%d/labels", number), nil, payload, nil)
	metrics.RecordLedgerCall("label", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("label issue %d: %w", number, err)
	}
	return nil
}

// getEntry fetches a single issue and reconstructs its ledger entry from the
// METADATA block.
func (c *Client) getEntry(ctx context.Context, number int) (*ledger.Entry, error) {
	var issue apiIssue
	if err := c.doJSON(ctx, http.MethodGet, c.repoPath("/issues/%d", number), nil, nil, &issue); err != nil {
		return nil, fmt.Errorf("get issue %d: %w", number, err)
	}
	return entryFromIssue(issue, extractMetadataFromBody(issue.Body)), nil
}

func issueNumber(id string) (int, error) {
	var number int
	if _, err := fmt.Sscanf(id, "%d", &number); err != nil || number <= 0 {
		return 0, fmt.Errorf("invalid issue id %q", id)
	}
	return number, nil
}
