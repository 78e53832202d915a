// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package github

import (
	"context"
	"errors"
	"testing"

	"github.com/alertledger/alertledger/internal/ledger"
)

// failingLedger fails every call with errBackend.
type failingLedger struct{}

var errBackend = errors.New("backend down")

func (failingLedger) Create(context.Context, ledger.CreateRequest) (*ledger.Entry, error) {
	return nil, errBackend
}

func (failingLedger) FindByIdentity(context.Context, ledger.FindRequest) (*ledger.Entry, error) {
	return nil, errBackend
}

func (failingLedger) Update(context.Context, ledger.UpdateRequest) (*ledger.Entry, error) {
	return nil, errBackend
}

func (failingLedger) Close(context.Context, string, string) (*ledger.Entry, error) {
	return nil, errBackend
}

func (failingLedger) Reopen(context.Context, string, string) (*ledger.Entry, error) {
	return nil, errBackend
}

func (failingLedger) AddComment(context.Context, string, string) error { return errBackend }

func (failingLedger) AddLabels(context.Context, string, []string) error { return errBackend }

func (failingLedger) FetchOpenAlerts(context.Context) ([]ledger.Alert, error) {
	return nil, errBackend
}

// notFoundLedger answers every lookup with ErrNotFound.
type notFoundLedger struct{ failingLedger }

func (notFoundLedger) FindByIdentity(context.Context, ledger.FindRequest) (*ledger.Entry, error) {
	return nil, ledger.ErrNotFound
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	b := NewBreakerLedger("test", failingLedger{})
	ctx := context.Background()

	// Drive enough failures to trip (>=10 requests, >=60% failure).
	var lastErr error
	for i := 0; i < 15; i++ {
		lastErr = b.AddComment(ctx, "1", "x")
	}

	if !errors.Is(lastErr, ledger.ErrUnavailable) {
		t.Errorf("after repeated failures error = %v, want ErrUnavailable", lastErr)
	}
}

func TestBreakerPassesThroughBackendError(t *testing.T) {
	t.Parallel()

	b := NewBreakerLedger("test", failingLedger{})

	err := b.AddComment(context.Background(), "1", "x")
	if !errors.Is(err, errBackend) {
		t.Errorf("first failure error = %v, want backend error passthrough", err)
	}
}

func TestBreakerNotFoundDoesNotTrip(t *testing.T) {
	t.Parallel()

	b := NewBreakerLedger("test", notFoundLedger{})
	ctx := context.Background()

	var lastErr error
	for i := 0; i < 15; i++ {
		_, lastErr = b.FindByIdentity(ctx, ledger.FindRequest{AlertID: "1"})
	}

	if !errors.Is(lastErr, ledger.ErrNotFound) {
		t.Errorf("FindByIdentity() error = %v, want ErrNotFound even after many lookups", lastErr)
	}
	if errors.Is(lastErr, ledger.ErrUnavailable) {
		t.Error("not-found lookups must not trip the breaker")
	}
}
