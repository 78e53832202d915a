// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/alertledger/alertledger/internal/logging"
	"github.com/alertledger/alertledger/internal/reconcile"
)

// ReconcilerService runs one reconciliation sweep after a startup delay and
// then idles until shutdown. A failed fetch returns an error so the
// supervisor restarts the service with backoff, effectively retrying the
// sweep until it succeeds once.
type ReconcilerService struct {
	sweeper      *reconcile.Sweeper
	startupDelay time.Duration
	name         string
}

// NewReconcilerService creates a startup reconciliation service. The delay
// gives the HTTP layer time to come up before the sweep hits the backend.
func NewReconcilerService(sweeper *reconcile.Sweeper, startupDelay time.Duration) *ReconcilerService {
	return &ReconcilerService{
		sweeper:      sweeper,
		startupDelay: startupDelay,
		name:         "reconciler",
	}
}

// Serve implements suture.Service.
func (r *ReconcilerService) Serve(ctx context.Context) error {
	if r.startupDelay > 0 {
		logging.Info().
			Dur("delay", r.startupDelay).
			Msg("Waiting before startup reconciliation")

		timer := time.NewTimer(r.startupDelay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if _, err := r.sweeper.Run(ctx); err != nil {
		return fmt.Errorf("startup reconciliation: %w", err)
	}

	// The sweep is a one-shot; stay alive so the supervisor does not
	// restart it.
	<-ctx.Done()
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log messages.
func (r *ReconcilerService) String() string {
	return r.name
}
