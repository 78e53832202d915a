// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// signaturePrefix is the scheme prefix GitHub puts on the
// X-Hub-Signature-256 header value.
const signaturePrefix = "sha256="

// SignatureGuard verifies webhook payload signatures: HMAC-SHA256 over the
// raw request body, hex encoded, prefixed with "sha256=".
type SignatureGuard struct {
	secret []byte
}

// NewSignatureGuard creates a guard for the given shared secret.
func NewSignatureGuard(secret string) *SignatureGuard {
	return &SignatureGuard{secret: []byte(secret)}
}

// Verify reports whether signature authenticates body. The comparison is
// constant time; mismatched lengths, a missing prefix, or a tampered body
// all fail identically.
func (g *SignatureGuard) Verify(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(body)
	expected := signaturePrefix + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// Sign computes the signature header value for body. Used by tests and by
// outbound delivery tooling.
func (g *SignatureGuard) Sign(body []byte) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
