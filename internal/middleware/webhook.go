// Package middleware provides request authentication for the webhook endpoint.
package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/Strob0t/GitRelay/internal/config"
)

// MaxDeliveryBytes caps the webhook request body. GitHub payloads are well
// under this; anything larger is rejected before signature computation.
const MaxDeliveryBytes = 262144

// SignatureHeader carries the HMAC-SHA256 digest of the delivery body.
const SignatureHeader = "X-Hub-Signature-256"

// WebhookAuth returns middleware that authenticates GitHub webhook deliveries.
//
// Two mechanisms are supported: an HMAC-SHA256 signature over the raw body
// (auth.Secret, checked against X-Hub-Signature-256) and a static URL token
// (auth.Token, checked against the ?token= query parameter). When both are
// configured a request passing either one is accepted. When neither is
// configured every request is accepted; that opt-out is the operator's call
// and is warned about at startup.
//
// The body is fully buffered so the signature covers exactly the bytes the
// handler will parse, then restored for downstream use.
func WebhookAuth(auth config.Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxDeliveryBytes))
			if err != nil {
				http.Error(w, `{"error":"request body too large"}`, http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !authenticate(auth, body, r) {
				http.Error(w, `{"error":"authentication failed"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// authenticate applies the "any configured mechanism suffices" policy.
func authenticate(auth config.Server, body []byte, r *http.Request) bool {
	if auth.Secret == "" && auth.Token == "" {
		return true
	}

	if auth.Secret != "" && verifySignature(body, r.Header.Get(SignatureHeader), auth.Secret) {
		return true
	}

	if auth.Token != "" && verifyToken(r.URL.Query().Get("token"), auth.Token) {
		return true
	}

	return false
}

// verifySignature checks an HMAC-SHA256 signature. Supports both raw hex and
// "sha256=<hex>" prefix formats (GitHub sends the latter).
func verifySignature(payload []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}

	sig := strings.TrimPrefix(signature, "sha256=")
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	return hmac.Equal(sigBytes, expected)
}

// verifyToken compares the query token in constant time.
func verifyToken(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
