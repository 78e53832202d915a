// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

// Package metrics provides Prometheus instrumentation for Alertledger:
//   - Webhook event dispatch outcomes
//   - Ledger backend call latency and errors
//   - Reconciliation sweep counters and duration
//   - HTTP API request latency and throughput
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook event metrics
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertledger_webhook_events_total",
			Help: "Total number of webhook events processed, by action and result",
		},
		[]string{"action", "result"}, // result: "applied", "noop", "error"
	)

	WebhookRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertledger_webhook_rejected_total",
			Help: "Total number of webhook deliveries rejected before dispatch",
		},
		[]string{"reason"}, // "signature", "payload", "action"
	)

	// Ledger backend metrics
	LedgerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alertledger_ledger_call_duration_seconds",
			Help:    "Duration of ledger backend calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	LedgerCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertledger_ledger_call_errors_total",
			Help: "Total number of failed ledger backend calls",
		},
		[]string{"operation"},
	)

	LedgerEntriesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alertledger_entries_created_total",
			Help: "Total number of ledger entries created",
		},
	)

	// Reconciliation sweep metrics
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertledger_reconcile_runs_total",
			Help: "Total number of reconciliation sweeps, by outcome",
		},
		[]string{"outcome"}, // "ok", "failed"
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "alertledger_reconcile_duration_seconds",
			Help:    "Duration of reconciliation sweeps in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	ReconcileAlertsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertledger_reconcile_alerts_total",
			Help: "Total number of alerts seen by reconciliation sweeps, by disposition",
		},
		[]string{"disposition"}, // "created", "skipped", "error"
	)

	// HTTP API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertledger_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alertledger_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alertledger_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Circuit breaker state: 0=closed, 1=half-open, 2=open
	LedgerBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alertledger_ledger_breaker_state",
			Help: "Ledger circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordWebhookEvent records a processed webhook event.
func RecordWebhookEvent(action, result string) {
	WebhookEventsTotal.WithLabelValues(action, result).Inc()
}

// RecordWebhookRejected records a delivery rejected before dispatch.
func RecordWebhookRejected(reason string) {
	WebhookRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordLedgerCall records a ledger backend call.
func RecordLedgerCall(operation string, duration time.Duration, err error) {
	LedgerCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		LedgerCallErrors.WithLabelValues(operation).Inc()
	}
}

// RecordReconcileRun records an entire reconciliation sweep.
func RecordReconcileRun(duration time.Duration, created, skipped, errs int, fetchFailed bool) {
	outcome := "ok"
	if fetchFailed {
		outcome = "failed"
	}
	ReconcileRunsTotal.WithLabelValues(outcome).Inc()
	ReconcileDuration.Observe(duration.Seconds())
	ReconcileAlertsProcessed.WithLabelValues("created").Add(float64(created))
	ReconcileAlertsProcessed.WithLabelValues("skipped").Add(float64(skipped))
	ReconcileAlertsProcessed.WithLabelValues("error").Add(float64(errs))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
