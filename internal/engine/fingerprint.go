// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package engine

// Fingerprint derives the stable identity key for an alert from its rule id
// and file path. The scanner's numeric alert id is not stable across
// re-scans of the same logical finding; the fingerprint is, so both the
// event path and the reconciliation sweep resolve identity through it.
//
// No escaping is performed: a rule id or path containing the separator can
// collide with a distinct finding. Accepted limitation.
func Fingerprint(ruleID, filePath string) string {
	return ruleID + "-" + filePath
}
