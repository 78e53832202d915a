// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package api

import (
	"strings"
	"testing"
)

func TestSignatureGuardRoundTrip(t *testing.T) {
	t.Parallel()

	guard := NewSignatureGuard("secret")
	body := []byte(`{"action":"created"}`)

	signature := guard.Sign(body)
	if !strings.HasPrefix(signature, "sha256=") {
		t.Errorf("signature %q missing sha256= prefix", signature)
	}
	if !guard.Verify(body, signature) {
		t.Error("Verify() = false for signature produced by Sign()")
	}
}

func TestSignatureGuardRejects(t *testing.T) {
	t.Parallel()

	guard := NewSignatureGuard("secret")
	body := []byte(`{"action":"created"}`)
	signature := guard.Sign(body)

	tests := []struct {
		name      string
		body      []byte
		signature string
	}{
		{"tampered body", []byte(`{"action":"deleted"}`), signature},
		{"wrong secret", body, NewSignatureGuard("other").Sign(body)},
		{"missing prefix", body, strings.TrimPrefix(signature, "sha256=")},
		{"empty signature", body, ""},
		{"garbage", body, "sha256=zzzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if guard.Verify(tt.body, tt.signature) {
				t.Error("Verify() = true, want false")
			}
		})
	}
}
