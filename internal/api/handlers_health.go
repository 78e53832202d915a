// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package api

import (
	"net/http"
	"time"

	"github.com/alertledger/alertledger/internal/models"
)

// Version is reported by the health endpoint. Overridable at build time:
//
//	go build -ldflags "-X github.com/alertledger/alertledger/internal/api.Version=..."
var Version = "dev"

// Health is the basic service health endpoint
// GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":  "ok",
			"version": Version,
			"uptime":  time.Since(h.startTime).String(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthLive is the liveness probe
// GET /api/v1/health/live
//
// Answers 200 whenever the process is serving requests. No dependency
// checks; a wedged GitHub API must not get the process restarted.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status": "alive",
			"uptime": time.Since(h.startTime).String(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady is the readiness probe
// GET /api/v1/health/ready
//
// Ready means configuration is loaded and the processing pipeline is wired.
// The ledger backend is intentionally not probed per request; its health is
// visible through the circuit breaker metrics instead.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil || h.sweeper == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Processing pipeline not initialized", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":          "ready",
			"repository":      h.config.GitHub.Owner + "/" + h.config.GitHub.Repo,
			"branch_strategy": h.config.Webhook.BranchStrategy,
			"main_branch":     h.config.Webhook.MainBranch,
			"reconciliation":  h.config.Reconcile.Enabled,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
