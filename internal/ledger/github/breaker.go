// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/alertledger/alertledger/internal/ledger"
	"github.com/alertledger/alertledger/internal/logging"
	"github.com/alertledger/alertledger/internal/metrics"
)

// BreakerLedger wraps an IssueLedger with a circuit breaker so a failing
// tracker degrades to fast ErrUnavailable errors instead of piling up
// timed-out requests.
//
// Trip policy: at least 10 requests in the rolling interval with a failure
// ratio of 60% or more. Once open, the breaker waits 2 minutes before
// admitting up to 3 half-open probes.
type BreakerLedger struct {
	inner   ledger.IssueLedger
	breaker *gobreaker.CircuitBreaker[interface{}]
}

var _ ledger.IssueLedger = (*BreakerLedger)(nil)

// NewBreakerLedger wraps inner with a named circuit breaker.
func NewBreakerLedger(name string, inner ledger.IssueLedger) *BreakerLedger {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.LedgerBreakerState.Set(breakerStateValue(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &BreakerLedger{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// execute runs fn through the breaker, translating breaker rejections into
// ErrUnavailable so callers see a stable sentinel.
func (b *BreakerLedger) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.breaker.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ledger.ErrUnavailable, err)
		}
		return nil, err
	}
	return result, nil
}

// castEntry converts an execute result back to *ledger.Entry.
func castEntry(result interface{}) (*ledger.Entry, error) {
	if result == nil {
		return nil, nil
	}
	entry, ok := result.(*ledger.Entry)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return entry, nil
}

func (b *BreakerLedger) Create(ctx context.Context, req ledger.CreateRequest) (*ledger.Entry, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return castEntry(result)
}

func (b *BreakerLedger) FindByIdentity(ctx context.Context, req ledger.FindRequest) (*ledger.Entry, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		entry, err := b.inner.FindByIdentity(ctx, req)
		// Not-found is a valid answer, not a backend failure; it must not
		// count toward tripping the breaker.
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return entry, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ledger.ErrUnavailable, err)
		}
		return nil, err
	}
	if result == nil {
		return nil, ledger.ErrNotFound
	}
	return castEntry(result)
}

func (b *BreakerLedger) Update(ctx context.Context, req ledger.UpdateRequest) (*ledger.Entry, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return castEntry(result)
}

func (b *BreakerLedger) Close(ctx context.Context, id, reason string) (*ledger.Entry, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Close(ctx, id, reason)
	})
	if err != nil {
		return nil, err
	}
	return castEntry(result)
}

func (b *BreakerLedger) Reopen(ctx context.Context, id, reason string) (*ledger.Entry, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Reopen(ctx, id, reason)
	})
	if err != nil {
		return nil, err
	}
	return castEntry(result)
}

func (b *BreakerLedger) AddComment(ctx context.Context, id, comment string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.AddComment(ctx, id, comment)
	})
	return err
}

func (b *BreakerLedger) AddLabels(ctx context.Context, id string, labels []string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.AddLabels(ctx, id, labels)
	})
	return err
}

func (b *BreakerLedger) FetchOpenAlerts(ctx context.Context) ([]ledger.Alert, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.FetchOpenAlerts(ctx)
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	alerts, ok := result.([]ledger.Alert)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return alerts, nil
}
