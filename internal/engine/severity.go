// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package engine

import "github.com/alertledger/alertledger/internal/ledger"

// MapSeverity converts a scanner severity (error|warning|note) to the
// internal severity scale. Unrecognized values map to medium rather than
// failing; creation must never be blocked by a severity the scanner added
// after this code shipped.
func MapSeverity(scannerSeverity string) ledger.Severity {
	switch scannerSeverity {
	case "error":
		return ledger.SeverityHigh
	case "warning":
		return ledger.SeverityMedium
	case "note":
		return ledger.SeverityLow
	default:
		return ledger.SeverityMedium
	}
}
