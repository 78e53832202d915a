// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alertledger/alertledger/internal/ledger"
	"github.com/alertledger/alertledger/internal/logging"
	"github.com/alertledger/alertledger/internal/metrics"
)

const alertsPageSize = 100

// apiAlert mirrors the code-scanning alert payload. Pointer fields capture
// that the API omits rule and instance data for some alert states.
type apiAlert struct {
	Number  int    `json:"number"`
	URL     string `json:"url"`
	HTMLURL string `json:"html_url"`
	State   string `json:"state"`
	Rule    *struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Severity    string `json:"severity"`
	} `json:"rule"`
	MostRecentInstance *struct {
		Ref         string `json:"ref"`
		AnalysisKey string `json:"analysis_key"`
		Location    *struct {
			Path        string `json:"path"`
			StartLine   int    `json:"start_line"`
			StartColumn int    `json:"start_column"`
		} `json:"location"`
	} `json:"most_recent_instance"`
}

// FetchOpenAlerts pulls all open code-scanning alerts for the repository,
// following pagination. Alerts missing the fields needed to compute an
// identity (rule id, file path, ref, analysis key) are dropped with a log
// line rather than failing the whole fetch.
func (c *Client) FetchOpenAlerts(ctx context.Context) ([]ledger.Alert, error) {
	start := time.Now()

	var alerts []ledger.Alert
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("state", "open")
		params.Set("per_page", strconv.Itoa(alertsPageSize))
		params.Set("page", strconv.Itoa(page))

		var batch []apiAlert
		err := c.doJSON(ctx, http.MethodGet, c.repoPath("/code-scanning/alerts"), params, nil, &batch)
		if err != nil {
			metrics.RecordLedgerCall("fetch_alerts", time.Since(start), err)
			return nil, fmt.Errorf("fetch code scanning alerts: %w", err)
		}

		for _, a := range batch {
			alert, ok := alertFromAPI(a)
			if !ok {
				logging.Warn().
					Int("alert_number", a.Number).
					Str("state", a.State).
					Msg("Skipping alert with incomplete identity fields")
				continue
			}
			alerts = append(alerts, alert)
		}

		if len(batch) < alertsPageSize {
			break
		}
	}

	metrics.RecordLedgerCall("fetch_alerts", time.Since(start), nil)
	return alerts, nil
}

// alertFromAPI converts an API alert, reporting ok=false when any identity
// field is absent.
func alertFromAPI(a apiAlert) (ledger.Alert, bool) {
	if a.Rule == nil || a.Rule.ID == "" ||
		a.MostRecentInstance == nil || a.MostRecentInstance.Ref == "" ||
		a.MostRecentInstance.AnalysisKey == "" ||
		a.MostRecentInstance.Location == nil || a.MostRecentInstance.Location.Path == "" {
		return ledger.Alert{}, false
	}

	name := a.Rule.Name
	if name == "" {
		name = a.Rule.ID
	}
	description := a.Rule.Description
	if description == "" {
		description = "No description available"
	}

	return ledger.Alert{
		ID:          a.Number,
		URL:         a.URL,
		HTMLURL:     a.HTMLURL,
		State:       a.State,
		RuleID:      a.Rule.ID,
		RuleName:    name,
		Description: description,
		Severity:    a.Rule.Severity,
		Ref:         a.MostRecentInstance.Ref,
		AnalysisKey: a.MostRecentInstance.AnalysisKey,
		Path:        a.MostRecentInstance.Location.Path,
		StartLine:   a.MostRecentInstance.Location.StartLine,
		StartColumn: a.MostRecentInstance.Location.StartColumn,
	}, true
}
