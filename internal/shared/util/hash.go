package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns a fixed-length, key-safe identifier for an arbitrary
// caller-supplied id such as a user or guest id.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
