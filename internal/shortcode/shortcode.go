// Package shortcode derives short codes from original URLs.
// The derivation is a pure function: the same URL always yields the same
// code, across calls and across process restarts. Collisions caused by
// truncation are detected at insertion time by the storage layer's unique
// index, not here.
package shortcode

import (
	"crypto/sha256"
	"encoding/hex"
)

// DefaultLength is the code length used by the service unless configured
// otherwise.
const DefaultLength = 10

// Derive computes the SHA-256 digest of the URL and returns the first
// length characters of its hexadecimal encoding. A non-positive or
// oversized length falls back to the full digest.
func Derive(url string, length int) string {
	digest := sha256.Sum256([]byte(url))
	encoded := hex.EncodeToString(digest[:])
	if length <= 0 || length > len(encoded) {
		return encoded
	}

	return encoded[:length]
}
