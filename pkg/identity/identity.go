// Package identity computes stable content fingerprints used for dedup and
// sync correlation. Fingerprints are identity tokens, never security tokens.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TokenLength is the fixed length of every fingerprint in hex characters.
const TokenLength = 16

// digest is swappable so the engine keeps producing stable tokens on
// platforms where the cryptographic primitive is unavailable.
var digest func(string) string = sha256Digest

// Fingerprint returns a fixed-length hex token over sanitized content.
// Identical input always yields an identical token; different input yields a
// different token with overwhelming probability.
func Fingerprint(content string) string {
	return digest(content)
}

// sha256Digest is the normal path: SHA-256 truncated to 16 hex characters.
func sha256Digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:TokenLength]
}

// foldDigest is the degraded path: a 64-bit FNV-1a fold over the content.
// Clearly weaker than a cryptographic digest but still deterministic and
// 16 hex characters for the same input.
func foldDigest(content string) string {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	var h uint64 = offset64
	for i := 0; i < len(content); i++ {
		h ^= uint64(content[i])
		h *= prime64
	}
	return fmt.Sprintf("%016x", h)
}

// UseFallback switches fingerprinting to the non-cryptographic fold.
// Tokens produced before and after the switch do not correlate.
func UseFallback() {
	digest = foldDigest
}
