// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

// Package ledger provides common error definitions.
package ledger

import "errors"

// ErrNotFound is returned by FindByIdentity when no entry matches the
// requested identity. It is a defined condition, not a backend failure.
var ErrNotFound = errors.New("ledger entry not found")

// ErrRateLimited is returned when the backend rejects a call after
// exhausting rate-limit retries.
var ErrRateLimited = errors.New("ledger rate limit exceeded")

// ErrUnavailable is returned when the backend circuit breaker is open.
var ErrUnavailable = errors.New("ledger backend unavailable")
