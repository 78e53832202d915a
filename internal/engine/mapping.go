// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package engine

import (
	"strconv"

	"github.com/alertledger/alertledger/internal/ledger"
)

// MetadataFromAlert maps a scanner alert to the entry metadata used at
// creation. Both channels build creation metadata here so the event path
// and the reconciliation sweep agree on identity and field mapping.
func MetadataFromAlert(alert ledger.Alert) ledger.EntryMetadata {
	return ledger.EntryMetadata{
		AlertID:      strconv.Itoa(alert.ID),
		Fingerprint:  Fingerprint(alert.RuleID, alert.Path),
		RuleID:       alert.RuleID,
		RuleName:     alert.RuleName,
		Severity:     MapSeverity(alert.Severity),
		Description:  alert.Description,
		AffectedFile: alert.Path,
		Branch:       BranchFromRef(alert.Ref),
		Line:         alert.StartLine,
		Column:       alert.StartColumn,
		URL:          alert.HTMLURL,
	}
}
