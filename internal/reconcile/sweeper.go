// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

// Package reconcile implements the pull channel: a full sweep over the
// scanner's open alerts that creates any ledger entry the webhook path
// missed. The sweep recomputes identity with the same fingerprint scheme
// and creates through the same engine path as the created transition, so a
// dropped, reordered, or early webhook is eventually corrected without
// manual intervention.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alertledger/alertledger/internal/engine"
	"github.com/alertledger/alertledger/internal/ledger"
	"github.com/alertledger/alertledger/internal/logging"
	"github.com/alertledger/alertledger/internal/metrics"
)

// Result is the operational summary of one sweep: counts, not details.
type Result struct {
	TotalAlerts   int `json:"total_alerts"`
	CreatedIssues int `json:"created_issues"`
	SkippedAlerts int `json:"skipped_alerts"`
	Errors        int `json:"errors"`
}

// Sweeper diffs the scanner's open alerts against the ledger.
type Sweeper struct {
	ledger    ledger.IssueLedger
	processor *engine.Processor
	policy    engine.Policy
}

// NewSweeper creates a sweeper sharing the event processor's create path and
// branch policy.
func NewSweeper(l ledger.IssueLedger, processor *engine.Processor) *Sweeper {
	return &Sweeper{
		ledger:    l,
		processor: processor,
		policy:    processor.Policy(),
	}
}

// Run fetches all open alerts and processes each independently: a failure on
// one alert increments the error count and does not abort the sweep. The
// fetch itself failing is the only fatal condition.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	start := time.Now()

	alerts, err := s.ledger.FetchOpenAlerts(ctx)
	if err != nil {
		metrics.RecordReconcileRun(time.Since(start), 0, 0, 0, true)
		return Result{}, fmt.Errorf("fetch open alerts: %w", err)
	}

	logging.Info().Int("alerts", len(alerts)).Msg("Starting reconciliation sweep")

	result := Result{TotalAlerts: len(alerts)}
	for _, alert := range alerts {
		created, err := s.processAlert(ctx, alert)
		switch {
		case err != nil:
			logging.Error().Err(err).Int("alert_id", alert.ID).Msg("Failed to reconcile alert")
			result.Errors++
		case created:
			result.CreatedIssues++
		default:
			result.SkippedAlerts++
		}
	}

	metrics.RecordReconcileRun(time.Since(start), result.CreatedIssues, result.SkippedAlerts, result.Errors, false)
	logging.Info().
		Int("total", result.TotalAlerts).
		Int("created", result.CreatedIssues).
		Int("skipped", result.SkippedAlerts).
		Int("errors", result.Errors).
		Dur("elapsed", time.Since(start)).
		Msg("Reconciliation sweep completed")

	return result, nil
}

// processAlert applies the sweep steps to one alert. Returns true when a new
// ledger entry was created, false when the alert was skipped.
func (s *Sweeper) processAlert(ctx context.Context, alert ledger.Alert) (bool, error) {
	// The fetch should already filter to open alerts; trust nothing.
	if alert.State != "open" {
		logging.Debug().Int("alert_id", alert.ID).Str("state", alert.State).Msg("Skipping non-open alert")
		return false, nil
	}

	branch := engine.BranchFromRef(alert.Ref)
	if !s.policy.ShouldTrack(branch) {
		logging.Debug().Int("alert_id", alert.ID).Str("branch", branch).Msg("Skipping alert - branch not tracked")
		return false, nil
	}

	meta := engine.MetadataFromAlert(alert)

	existing, err := s.ledger.FindByIdentity(ctx, ledger.FindRequest{
		AlertID:     meta.AlertID,
		Fingerprint: meta.Fingerprint,
	})
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return false, fmt.Errorf("find entry for alert %d: %w", alert.ID, err)
	}
	if existing != nil {
		logging.Debug().
			Int("alert_id", alert.ID).
			Str("entry_id", existing.ID).
			Msg("Alert already tracked - skipping")
		return false, nil
	}

	// Same create path as the webhook created transition: policy check,
	// find-or-create under the fingerprint lock, shared field mapping.
	entry, err := s.processor.Create(ctx, meta)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}

	logging.Info().
		Int("alert_id", alert.ID).
		Str("entry_id", entry.ID).
		Msg("Created ledger entry for reconciled alert")
	return true, nil
}
