// Package sha256 derives idempotency keys from snapshot URLs.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hasher computes SHA-256 digests used as idempotency keys.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// URLKey hashes a URL after trimming whitespace and a trailing slash so that
// trivially different spellings share one key.
func (h *Hasher) URLKey(rawURL string) string {
	normalized := strings.TrimSuffix(strings.TrimSpace(rawURL), "/")
	digest, _ := h.Hash([]byte(normalized))
	return digest
}
