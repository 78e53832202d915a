// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/alertledger/alertledger/internal/engine"
	"github.com/alertledger/alertledger/internal/ledger"
	"github.com/alertledger/alertledger/internal/logging"
	"github.com/alertledger/alertledger/internal/metrics"
	"github.com/alertledger/alertledger/internal/models"
)

// maxWebhookBodySize caps the webhook payload read. GitHub payloads are well
// under 1MB; anything larger is hostile.
const maxWebhookBodySize = 1 << 20

// Webhook handles incoming code_scanning_alert webhook deliveries
// POST /api/v1/webhook
//
// Request processing order:
//  1. Signature verification (HMAC-SHA256 over the raw body, constant time)
//  2. JSON decoding and payload validation
//  3. Action dispatch through the event processor
//
// Rejections before dispatch never touch the ledger: an unsigned or
// malformed delivery costs no backend calls.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body", err)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Hub-Signature-256")
	if signature == "" {
		metrics.RecordWebhookRejected("missing_signature")
		respondError(w, http.StatusUnauthorized, "MISSING_SIGNATURE", "X-Hub-Signature-256 header required", nil)
		return
	}
	if !h.guard.Verify(body, signature) {
		metrics.RecordWebhookRejected("invalid_signature")
		logging.Warn().Str("remote_addr", r.RemoteAddr).Msg("Invalid webhook signature")
		respondError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature verification failed", nil)
		return
	}

	var event models.CodeScanningAlertEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.RecordWebhookRejected("invalid_payload")
		respondError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Failed to parse webhook JSON", err)
		return
	}
	if apiErr := validateRequest(&event); apiErr != nil {
		metrics.RecordWebhookRejected("validation_failed")
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("action", sanitizeLogValue(event.Action)).
		Int("alert_id", event.Alert.ID).
		Str("repository", sanitizeLogValue(event.Repository.FullName)).
		Msg("Webhook received")

	entry, err := h.processor.Dispatch(r.Context(), engine.Event{
		Action:   engine.Action(event.Action),
		Metadata: metadataFromWebhook(&event),
	})
	switch {
	case errors.Is(err, engine.ErrUnsupportedAction):
		metrics.RecordWebhookEvent(event.Action, "unsupported")
		respondError(w, http.StatusBadRequest, "UNSUPPORTED_ACTION", "Unsupported webhook action: "+sanitizeLogValue(event.Action), nil)
		return
	case err != nil:
		metrics.RecordWebhookEvent(event.Action, "error")
		respondError(w, http.StatusInternalServerError, "PROCESSING_ERROR", "Failed to process webhook event", err)
		return
	}

	result := "processed"
	if entry == nil {
		result = "skipped"
	}
	metrics.RecordWebhookEvent(event.Action, result)

	data := map[string]interface{}{
		"action": event.Action,
		"result": result,
	}
	if entry != nil {
		data["entry_id"] = entry.ID
		data["status"] = entry.Status
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// metadataFromWebhook maps a webhook payload onto entry metadata. The branch
// is derived from the event-level ref; the instance ref records where the
// scanner last saw the alert, which is not necessarily the push that
// triggered the event.
func metadataFromWebhook(event *models.CodeScanningAlertEvent) ledger.EntryMetadata {
	alert := event.Alert
	loc := alert.MostRecentInstance.Location

	return ledger.EntryMetadata{
		AlertID:      strconv.Itoa(alert.ID),
		Fingerprint:  engine.Fingerprint(alert.Rule.ID, loc.Path),
		RuleID:       alert.Rule.ID,
		RuleName:     alert.Rule.Name,
		Severity:     engine.MapSeverity(alert.Rule.Severity),
		Description:  alert.Rule.Description,
		AffectedFile: loc.Path,
		Branch:       engine.BranchFromRef(event.Ref),
		Line:         loc.StartLine,
		Column:       loc.StartColumn,
		URL:          alert.HTMLURL,
	}
}
