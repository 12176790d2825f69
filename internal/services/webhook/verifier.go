// Package webhook authenticates and applies payment provider webhooks.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC of the raw request body
const SignatureHeader = "X-Razorpay-Signature"

// Verifier checks webhook signatures against a shared secret
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier. An empty secret rejects every payload.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether signature is the HMAC-SHA256 of payload
func (v *Verifier) Verify(payload []byte, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}
	expected := v.Sign(payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign returns the hex HMAC-SHA256 of payload
func (v *Verifier) Sign(payload []byte) string {
	h := hmac.New(sha256.New, v.secret)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
