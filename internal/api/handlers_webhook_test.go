// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/alertledger/alertledger/internal/config"
	"github.com/alertledger/alertledger/internal/engine"
	"github.com/alertledger/alertledger/internal/ledger"
	"github.com/alertledger/alertledger/internal/models"
	"github.com/alertledger/alertledger/internal/reconcile"
)

const testSecret = "test-webhook-secret-0123456789abcdef"

// mockLedger is an in-memory IssueLedger recording calls for assertions.
type mockLedger struct {
	mu      sync.Mutex
	entries map[string]*ledger.Entry // keyed by fingerprint
	nextID  int
	calls   []string

	failCreate bool
	alerts     []ledger.Alert
	failFetch  bool
}

func newMockLedger() *mockLedger {
	return &mockLedger{entries: map[string]*ledger.Entry{}, nextID: 1}
}

func (m *mockLedger) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockLedger) callCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockLedger) Create(_ context.Context, req ledger.CreateRequest) (*ledger.Entry, error) {
	m.record("create")
	if m.failCreate {
		return nil, errors.New("create failed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry := &ledger.Entry{
		ID:       strconv.Itoa(m.nextID),
		Metadata: req.Metadata,
		Status:   ledger.StatusCreated,
		Labels:   []string{"security-alert"},
	}
	m.nextID++
	m.entries[req.Metadata.Fingerprint] = entry
	return entry, nil
}

func (m *mockLedger) FindByIdentity(_ context.Context, req ledger.FindRequest) (*ledger.Entry, error) {
	m.record("find")
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[req.Fingerprint]; ok {
		return entry, nil
	}
	return nil, ledger.ErrNotFound
}

func (m *mockLedger) Update(_ context.Context, req ledger.UpdateRequest) (*ledger.Entry, error) {
	m.record("update")
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if entry.ID == req.ID {
			if req.Status != "" {
				entry.Status = req.Status
			}
			return entry, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (m *mockLedger) Close(_ context.Context, id, _ string) (*ledger.Entry, error) {
	m.record("close")
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if entry.ID == id {
			entry.Status = ledger.StatusFixed
			return entry, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (m *mockLedger) Reopen(_ context.Context, id, _ string) (*ledger.Entry, error) {
	m.record("reopen")
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if entry.ID == id {
			entry.Status = ledger.StatusReopened
			return entry, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (m *mockLedger) AddComment(_ context.Context, _, _ string) error {
	m.record("comment")
	return nil
}

func (m *mockLedger) AddLabels(_ context.Context, _ string, _ []string) error {
	m.record("label")
	return nil
}

func (m *mockLedger) FetchOpenAlerts(context.Context) ([]ledger.Alert, error) {
	m.record("fetch")
	if m.failFetch {
		return nil, errors.New("fetch failed")
	}
	return m.alerts, nil
}

// setupTestHandler creates a handler wired to a mock ledger.
func setupTestHandler(t *testing.T, strategy string, l *mockLedger) *Handler {
	t.Helper()

	cfg := &config.Config{
		GitHub: config.GitHubConfig{
			Owner: "octo",
			Repo:  "example",
		},
		Webhook: config.WebhookConfig{
			Secret:         testSecret,
			BranchStrategy: strategy,
			MainBranch:     "main",
		},
	}

	policy := engine.Policy{
		Strategy:   engine.ParseStrategy(strategy),
		MainBranch: "main",
	}
	processor := engine.NewProcessor(l, policy)
	sweeper := reconcile.NewSweeper(l, processor)

	return NewHandler(cfg, processor, sweeper)
}

// generateHMACSignature computes the X-Hub-Signature-256 value for a body.
func generateHMACSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func webhookPayload(action, ref string) []byte {
	event := models.CodeScanningAlertEvent{
		Action: action,
		Ref:    ref,
		Alert: models.WebhookAlert{
			ID:      42,
			HTMLURL: "https://github.com/octo/example/security/code-scanning/42",
			State:   "open",
			Rule: models.AlertRule{
				ID:          "js/sql-injection",
				Name:        "SQL Injection",
				Description: "User input flows into a SQL query",
				Severity:    "error",
			},
			MostRecentInstance: models.AlertInstance{
				Ref:         ref,
				AnalysisKey: ".github/workflows/codeql.yml:analyze",
				Location: models.AlertLocation{
					Path:      "src/db.ts",
					StartLine: 10,
				},
			},
		},
		Repository: models.EventRepository{FullName: "octo/example"},
	}
	data, _ := json.Marshal(event)
	return data
}

func postWebhook(t *testing.T, h *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}

func TestWebhookMissingSignature(t *testing.T) {
	t.Parallel()

	h := setupTestHandler(t, "main_only", newMockLedger())
	rec := postWebhook(t, h, webhookPayload("created", "refs/heads/main"), "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "MISSING_SIGNATURE") {
		t.Errorf("body = %s, want MISSING_SIGNATURE", rec.Body.String())
	}
}

func TestWebhookInvalidSignature(t *testing.T) {
	t.Parallel()

	h := setupTestHandler(t, "main_only", newMockLedger())
	body := webhookPayload("created", "refs/heads/main")
	rec := postWebhook(t, h, body, generateHMACSignature(body, "wrong-secret"))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_SIGNATURE") {
		t.Errorf("body = %s, want INVALID_SIGNATURE", rec.Body.String())
	}
}

func TestWebhookTamperedBody(t *testing.T) {
	t.Parallel()

	h := setupTestHandler(t, "main_only", newMockLedger())
	body := webhookPayload("created", "refs/heads/main")
	signature := generateHMACSignature(body, testSecret)

	tampered := bytes.Replace(body, []byte("created"), []byte("deleted"), 1)
	rec := postWebhook(t, h, tampered, signature)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestWebhookInvalidJSON(t *testing.T) {
	t.Parallel()

	h := setupTestHandler(t, "main_only", newMockLedger())
	body := []byte("{not json")
	rec := postWebhook(t, h, body, generateHMACSignature(body, testSecret))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_PAYLOAD") {
		t.Errorf("body = %s, want INVALID_PAYLOAD", rec.Body.String())
	}
}

func TestWebhookValidationFailure(t *testing.T) {
	t.Parallel()

	h := setupTestHandler(t, "main_only", newMockLedger())
	// Valid JSON but missing required fields.
	body := []byte(`{"action": "", "ref": ""}`)
	rec := postWebhook(t, h, body, generateHMACSignature(body, testSecret))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "VALIDATION_ERROR") {
		t.Errorf("body = %s, want VALIDATION_ERROR", rec.Body.String())
	}
}

func TestWebhookCreatedOnMainBranch(t *testing.T) {
	t.Parallel()

	l := newMockLedger()
	h := setupTestHandler(t, "main_only", l)
	body := webhookPayload("created", "refs/heads/main")
	rec := postWebhook(t, h, body, generateHMACSignature(body, testSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if l.callCount("create") != 1 {
		t.Errorf("create calls = %d, want 1", l.callCount("create"))
	}
	if !strings.Contains(rec.Body.String(), `"result":"processed"`) {
		t.Errorf("body = %s, want processed result", rec.Body.String())
	}
}

func TestWebhookCreatedOnFeatureBranchSkipped(t *testing.T) {
	t.Parallel()

	l := newMockLedger()
	h := setupTestHandler(t, "main_only", l)
	body := webhookPayload("created", "refs/heads/feature/login")
	rec := postWebhook(t, h, body, generateHMACSignature(body, testSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if l.callCount("create") != 0 {
		t.Errorf("create calls = %d, want 0 for untracked branch", l.callCount("create"))
	}
	if !strings.Contains(rec.Body.String(), `"result":"skipped"`) {
		t.Errorf("body = %s, want skipped result", rec.Body.String())
	}
}

func TestWebhookCreatedIdempotentReplay(t *testing.T) {
	t.Parallel()

	l := newMockLedger()
	h := setupTestHandler(t, "main_only", l)
	body := webhookPayload("created", "refs/heads/main")
	signature := generateHMACSignature(body, testSecret)

	postWebhook(t, h, body, signature)
	rec := postWebhook(t, h, body, signature)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if l.callCount("create") != 1 {
		t.Errorf("create calls = %d, want 1 (replay must reuse existing entry)", l.callCount("create"))
	}
}

func TestWebhookFixedWithoutEntryIsNoOp(t *testing.T) {
	t.Parallel()

	l := newMockLedger()
	h := setupTestHandler(t, "main_only", l)
	body := webhookPayload("fixed", "refs/heads/main")
	rec := postWebhook(t, h, body, generateHMACSignature(body, testSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"result":"skipped"`) {
		t.Errorf("body = %s, want skipped result", rec.Body.String())
	}
	if l.callCount("close") != 0 {
		t.Errorf("close calls = %d, want 0", l.callCount("close"))
	}
}

func TestWebhookFixedClosesExistingEntry(t *testing.T) {
	t.Parallel()

	l := newMockLedger()
	h := setupTestHandler(t, "main_only", l)

	created := webhookPayload("created", "refs/heads/main")
	postWebhook(t, h, created, generateHMACSignature(created, testSecret))

	fixed := webhookPayload("fixed", "refs/heads/main")
	rec := postWebhook(t, h, fixed, generateHMACSignature(fixed, testSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if l.callCount("close") != 1 {
		t.Errorf("close calls = %d, want 1", l.callCount("close"))
	}
	if l.callCount("label") != 1 || l.callCount("comment") != 1 {
		t.Errorf("label/comment calls = %d/%d, want 1/1", l.callCount("label"), l.callCount("comment"))
	}
}

func TestWebhookUnsupportedAction(t *testing.T) {
	t.Parallel()

	h := setupTestHandler(t, "main_only", newMockLedger())
	body := webhookPayload("exploded", "refs/heads/main")
	rec := postWebhook(t, h, body, generateHMACSignature(body, testSecret))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "UNSUPPORTED_ACTION") {
		t.Errorf("body = %s, want UNSUPPORTED_ACTION", rec.Body.String())
	}
}

func TestWebhookLedgerFailure(t *testing.T) {
	t.Parallel()

	l := newMockLedger()
	l.failCreate = true
	h := setupTestHandler(t, "main_only", l)
	body := webhookPayload("created", "refs/heads/main")
	rec := postWebhook(t, h, body, generateHMACSignature(body, testSecret))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "PROCESSING_ERROR") {
		t.Errorf("body = %s, want PROCESSING_ERROR", rec.Body.String())
	}
}

func TestWebhookAppearedInBranchMainOnlyNoLedgerCalls(t *testing.T) {
	t.Parallel()

	l := newMockLedger()
	h := setupTestHandler(t, "main_only", l)
	body := webhookPayload("appeared_in_branch", "refs/heads/develop")
	rec := postWebhook(t, h, body, generateHMACSignature(body, testSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(l.calls) != 0 {
		t.Errorf("ledger calls = %v, want none under main_only", l.calls)
	}
}
