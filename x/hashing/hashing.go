// Package hashing provides the integrity fingerprint used to detect
// tampering of task configs and aggregated results between commit and claim.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintLen is the length of an encoded fingerprint.
const FingerprintLen = 64

// Fingerprint returns the lowercase hex SHA-256 digest of the UTF-8 bytes of s.
// The same function fingerprints configs and results.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
