// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package engine

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	t.Parallel()

	km := newKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("key")
			counter++
			km.Unlock("key")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("expected 100 increments, got %d", counter)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	t.Parallel()

	km := newKeyedMutex()
	km.Lock("a")

	done := make(chan struct{})
	go func() {
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()

	// Holding "a" must not block "b".
	<-done
	km.Unlock("a")
}

func TestKeyedMutexFreesReleasedKeys(t *testing.T) {
	t.Parallel()

	km := newKeyedMutex()
	for i := 0; i < 50; i++ {
		km.Lock("transient")
		km.Unlock("transient")
	}

	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.locks) != 0 {
		t.Errorf("expected lock map to be empty after release, got %d entries", len(km.locks))
	}
}

func TestKeyedMutexUnlockUnknownKeyIsHarmless(t *testing.T) {
	t.Parallel()

	km := newKeyedMutex()
	km.Unlock("never-locked")
}
