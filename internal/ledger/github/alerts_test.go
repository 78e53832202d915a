// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func alertJSON(number int) string {
	return fmt.Sprintf(`{
		"number": %d,
		"url": "https://api.github.com/alert/%d",
		"html_url": "https://github.com/alert/%d",
		"state": "open",
		"rule": {"id": "js/sql-injection", "name": "SQL Injection", "description": "desc", "severity": "error"},
		"most_recent_instance": {
			"ref": "refs/heads/main",
			"analysis_key": ".github/workflows/codeql.yml:analyze",
			"location": {"path": "src/db.ts", "start_line": 10, "start_column": 5}
		}
	}`, number, number, number)
}

func TestFetchOpenAlertsPagination(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/example/code-scanning/alerts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("state"); got != "open" {
			t.Errorf("state = %q, want open", got)
		}

		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			items := make([]string, alertsPageSize)
			for i := range items {
				items[i] = alertJSON(i + 1)
			}
			_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
		case "2":
			_, _ = w.Write([]byte("[" + alertJSON(alertsPageSize+1) + "]"))
		default:
			t.Errorf("unexpected page %q", page)
			_, _ = w.Write([]byte("[]"))
		}
	}))

	alerts, err := client.FetchOpenAlerts(context.Background())
	if err != nil {
		t.Fatalf("FetchOpenAlerts() error = %v", err)
	}
	if len(alerts) != alertsPageSize+1 {
		t.Errorf("len(alerts) = %d, want %d", len(alerts), alertsPageSize+1)
	}
	if alerts[0].RuleID != "js/sql-injection" || alerts[0].Ref != "refs/heads/main" {
		t.Errorf("unexpected first alert: %+v", alerts[0])
	}
}

func TestFetchOpenAlertsDropsIncomplete(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// One complete alert, one missing its rule, one missing location.
		payload := "[" + alertJSON(1) + `,
			{"number": 2, "state": "open", "most_recent_instance": {"ref": "refs/heads/main", "analysis_key": "k", "location": {"path": "a.ts"}}},
			{"number": 3, "state": "open", "rule": {"id": "r"}, "most_recent_instance": {"ref": "refs/heads/main", "analysis_key": "k"}}
		]`
		_, _ = w.Write([]byte(payload))
	}))

	alerts, err := client.FetchOpenAlerts(context.Background())
	if err != nil {
		t.Fatalf("FetchOpenAlerts() error = %v", err)
	}
	if len(alerts) != 1 || alerts[0].ID != 1 {
		t.Errorf("alerts = %+v, want only alert 1", alerts)
	}
}

func TestAlertFromAPIFallbacks(t *testing.T) {
	t.Parallel()

	var a apiAlert
	raw := `{
		"number": 9,
		"state": "open",
		"rule": {"id": "go/test-rule"},
		"most_recent_instance": {"ref": "refs/heads/main", "analysis_key": "k", "location": {"path": "main.go"}}
	}`
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	alert, ok := alertFromAPI(a)
	if !ok {
		t.Fatal("alertFromAPI() ok = false, want true")
	}
	if alert.RuleName != "go/test-rule" {
		t.Errorf("RuleName = %q, want rule id fallback", alert.RuleName)
	}
	if alert.Description != "No description available" {
		t.Errorf("Description = %q, want placeholder", alert.Description)
	}
}
