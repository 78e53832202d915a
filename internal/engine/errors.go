// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

// Package engine provides common error definitions.
package engine

import "errors"

// ErrUnsupportedAction is returned by Dispatch for an action outside the
// known webhook action set. This is the one webhook-path condition that must
// surface as an error response instead of a 200.
var ErrUnsupportedAction = errors.New("unsupported action")
