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

// Reconcile triggers a reconciliation sweep on demand
// POST /api/v1/reconcile
//
// Runs synchronously and returns the sweep counts. Per-alert failures are
// reflected in the errors count, not the HTTP status; only a failed alert
// fetch makes the whole request fail.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.sweeper.Run(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "RECONCILE_FAILED", "Failed to fetch open alerts from scanner", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
