// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/alertledger/alertledger/internal/ledger"
	"github.com/alertledger/alertledger/internal/logging"
)

// Action is a webhook action delivered by the scanner.
type Action string

// Webhook actions.
const (
	ActionCreated          Action = "created"
	ActionAppearedInBranch Action = "appeared_in_branch"
	ActionFixed            Action = "fixed"
	ActionClosedByUser     Action = "closed_by_user"
	ActionReopened         Action = "reopened"
	ActionReopenedByUser   Action = "reopened_by_user"
)

// Event is a normalized webhook event handed to Dispatch. Metadata carries
// the full alert snapshot; only AlertID, Fingerprint, and Branch are used by
// the mutating (non-created) transitions.
type Event struct {
	Action   Action
	Metadata ledger.EntryMetadata
}

// Entry comment texts, shared across transitions so the ledger history reads
// consistently.
const (
	commentFixed          = "✅ Security alert has been fixed!"
	commentClosedByUser   = "👤 Security alert closed by user"
	commentReopened       = "🔄 Security alert reopened automatically"
	commentReopenedByUser = "👤 Security alert reopened by user"
)

// Processor applies one pure transition per webhook action against the
// ledger. All transitions except created resolve the existing entry first;
// a missing entry is a defined no-op (nil, nil), not an error — a fixed
// event for an alert that was never tracked has nothing to do.
//
// Processor is safe for concurrent use. Creation is serialized per
// fingerprint through a keyed mutex so concurrent created events for the
// same finding cannot race the find-then-create sequence into duplicates.
type Processor struct {
	ledger   ledger.IssueLedger
	policy   Policy
	createMu *keyedMutex
}

// NewProcessor creates an event processor bound to a ledger backend and an
// immutable branch policy.
func NewProcessor(l ledger.IssueLedger, policy Policy) *Processor {
	return &Processor{
		ledger:   l,
		policy:   policy,
		createMu: newKeyedMutex(),
	}
}

// Policy returns the processor's branch policy.
func (p *Processor) Policy() Policy {
	return p.policy
}

// Dispatch routes an event to its transition. It returns the affected entry,
// or (nil, nil) when the transition is a defined no-op. An unknown action
// returns ErrUnsupportedAction.
func (p *Processor) Dispatch(ctx context.Context, event Event) (*ledger.Entry, error) {
	switch event.Action {
	case ActionCreated:
		return p.Create(ctx, event.Metadata)
	case ActionAppearedInBranch:
		return p.AppearInBranch(ctx, event.Metadata.AlertID, event.Metadata.Fingerprint, event.Metadata.Branch)
	case ActionFixed:
		return p.Fix(ctx, event.Metadata.AlertID, event.Metadata.Fingerprint)
	case ActionClosedByUser:
		return p.CloseByUser(ctx, event.Metadata.AlertID, event.Metadata.Fingerprint)
	case ActionReopened:
		return p.Reopen(ctx, event.Metadata.AlertID, event.Metadata.Fingerprint, false)
	case ActionReopenedByUser:
		return p.Reopen(ctx, event.Metadata.AlertID, event.Metadata.Fingerprint, true)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAction, event.Action)
	}
}

// Create is the created transition and the shared create path of the
// reconciliation sweep. It returns (nil, nil) when the branch is untracked,
// the pre-existing entry unchanged on idempotent replay, and a new entry
// otherwise.
func (p *Processor) Create(ctx context.Context, meta ledger.EntryMetadata) (*ledger.Entry, error) {
	if !p.policy.ShouldTrack(meta.Branch) {
		logging.Warn().
			Str("alert_id", meta.AlertID).
			Str("branch", meta.Branch).
			Str("main_branch", p.policy.MainBranch).
			Msg("Issue creation skipped - branch not tracked")
		return nil, nil
	}

	// Serialize find-then-create per fingerprint; the backend cannot
	// enforce identity uniqueness itself.
	p.createMu.Lock(meta.Fingerprint)
	defer p.createMu.Unlock(meta.Fingerprint)

	existing, err := p.find(ctx, meta.AlertID, meta.Fingerprint)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logging.Debug().
			Str("alert_id", meta.AlertID).
			Str("entry_id", existing.ID).
			Msg("Entry already exists for alert - returning existing")
		return existing, nil
	}

	entry, err := p.ledger.Create(ctx, ledger.CreateRequest{Metadata: meta})
	if err != nil {
		return nil, fmt.Errorf("create entry for alert %s: %w", meta.AlertID, err)
	}

	logging.Info().
		Str("alert_id", meta.AlertID).
		Str("entry_id", entry.ID).
		Str("branch", meta.Branch).
		Str("severity", string(meta.Severity)).
		Msg("Ledger entry created")
	return entry, nil
}

// AppearInBranch handles appeared_in_branch. Under main_only the event is
// ignored outright — no ledger call is made, not even the identity lookup.
func (p *Processor) AppearInBranch(ctx context.Context, alertID, fingerprint, branch string) (*ledger.Entry, error) {
	if p.policy.Strategy == StrategyMainOnly {
		logging.Warn().
			Str("alert_id", alertID).
			Str("branch", branch).
			Msg("Branch alert tracking disabled (main_only strategy) - ignoring alert")
		return nil, nil
	}

	existing, err := p.find(ctx, alertID, fingerprint)
	if err != nil || existing == nil {
		return nil, err
	}

	comment := fmt.Sprintf("🌿 Alert appeared in branch: `%s`", branch)
	if err := p.ledger.AddComment(ctx, existing.ID, comment); err != nil {
		return nil, fmt.Errorf("comment entry %s: %w", existing.ID, err)
	}
	if err := p.ledger.AddLabels(ctx, existing.ID, []string{"appeared-in-branch"}); err != nil {
		return nil, fmt.Errorf("label entry %s: %w", existing.ID, err)
	}

	entry, err := p.ledger.Update(ctx, ledger.UpdateRequest{
		ID:     existing.ID,
		Status: ledger.StatusAppearedInBranch,
	})
	if err != nil {
		return nil, fmt.Errorf("update entry %s: %w", existing.ID, err)
	}
	return entry, nil
}

// Fix handles fixed: label, comment, then close with reason fixed.
func (p *Processor) Fix(ctx context.Context, alertID, fingerprint string) (*ledger.Entry, error) {
	return p.close(ctx, alertID, fingerprint, "fixed", commentFixed)
}

// CloseByUser handles closed_by_user: label, comment, then close with
// reason closed_by_user.
func (p *Processor) CloseByUser(ctx context.Context, alertID, fingerprint string) (*ledger.Entry, error) {
	return p.close(ctx, alertID, fingerprint, "closed_by_user", commentClosedByUser)
}

// close is the shared mutating path for fixed and closed_by_user.
func (p *Processor) close(ctx context.Context, alertID, fingerprint, reason, comment string) (*ledger.Entry, error) {
	existing, err := p.find(ctx, alertID, fingerprint)
	if err != nil || existing == nil {
		return nil, err
	}

	if err := p.ledger.AddLabels(ctx, existing.ID, []string{labelForReason(reason)}); err != nil {
		return nil, fmt.Errorf("label entry %s: %w", existing.ID, err)
	}
	if err := p.ledger.AddComment(ctx, existing.ID, comment); err != nil {
		return nil, fmt.Errorf("comment entry %s: %w", existing.ID, err)
	}

	entry, err := p.ledger.Close(ctx, existing.ID, reason)
	if err != nil {
		return nil, fmt.Errorf("close entry %s: %w", existing.ID, err)
	}

	logging.Info().
		Str("alert_id", alertID).
		Str("entry_id", entry.ID).
		Str("reason", reason).
		Msg("Ledger entry closed")
	return entry, nil
}

// Reopen handles reopened and reopened_by_user.
func (p *Processor) Reopen(ctx context.Context, alertID, fingerprint string, byUser bool) (*ledger.Entry, error) {
	existing, err := p.find(ctx, alertID, fingerprint)
	if err != nil || existing == nil {
		return nil, err
	}

	reason := "reopened"
	comment := commentReopened
	if byUser {
		reason = "reopened_by_user"
		comment = commentReopenedByUser
	}

	if err := p.ledger.AddLabels(ctx, existing.ID, []string{labelForReason(reason)}); err != nil {
		return nil, fmt.Errorf("label entry %s: %w", existing.ID, err)
	}
	if err := p.ledger.AddComment(ctx, existing.ID, comment); err != nil {
		return nil, fmt.Errorf("comment entry %s: %w", existing.ID, err)
	}

	entry, err := p.ledger.Reopen(ctx, existing.ID, reason)
	if err != nil {
		return nil, fmt.Errorf("reopen entry %s: %w", existing.ID, err)
	}

	logging.Info().
		Str("alert_id", alertID).
		Str("entry_id", entry.ID).
		Str("reason", reason).
		Msg("Ledger entry reopened")
	return entry, nil
}

// find resolves the existing entry for an identity, translating ErrNotFound
// into (nil, nil) so transitions can treat it as a defined no-op.
func (p *Processor) find(ctx context.Context, alertID, fingerprint string) (*ledger.Entry, error) {
	entry, err := p.ledger.FindByIdentity(ctx, ledger.FindRequest{
		AlertID:     alertID,
		Fingerprint: fingerprint,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			logging.Debug().
				Str("alert_id", alertID).
				Str("fingerprint", fingerprint).
				Msg("No ledger entry for identity - nothing to do")
			return nil, nil
		}
		return nil, fmt.Errorf("find entry for alert %s: %w", alertID, err)
	}
	return entry, nil
}

// labelForReason converts a close/reopen reason to its label form.
// closed_by_user is hyphenated; reopened_by_user historically kept its
// underscores and existing ledgers depend on that.
func labelForReason(reason string) string {
	switch reason {
	case "closed_by_user":
		return "closed-by-user"
	case "reopened_by_user":
		return "reopened_by_user"
	default:
		return reason
	}
}
