// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

// Package api implements the HTTP surface: the webhook ingestion endpoint,
// health and readiness probes, the manual reconciliation trigger, and the
// Prometheus metrics endpoint.
package api

import (
	"time"

	"github.com/alertledger/alertledger/internal/config"
	"github.com/alertledger/alertledger/internal/engine"
	"github.com/alertledger/alertledger/internal/reconcile"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	config    *config.Config
	processor *engine.Processor
	sweeper   *reconcile.Sweeper
	guard     *SignatureGuard
	startTime time.Time
}

// NewHandler creates the HTTP handler set.
func NewHandler(cfg *config.Config, processor *engine.Processor, sweeper *reconcile.Sweeper) *Handler {
	return &Handler{
		config:    cfg,
		processor: processor,
		sweeper:   sweeper,
		guard:     NewSignatureGuard(cfg.Webhook.Secret),
		startTime: time.Now(),
	}
}
