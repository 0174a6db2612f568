package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// GenerateKey joins parts with ':'.
func GenerateKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// HashKey returns a hex sha256 digest of data, suitable as a cache key suffix.
func HashKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
