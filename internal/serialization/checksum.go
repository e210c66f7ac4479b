package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// dataChecksum returns the hex SHA-256 digest of a file's tensor data region.
func dataChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// verifyChecksum reports ErrChecksumMismatch when data does not hash to stored.
// An empty stored digest means the file was written without one.
func verifyChecksum(data []byte, stored string) error {
	if stored == "" {
		return nil
	}
	if got := dataChecksum(data); got != stored {
		return fmt.Errorf("%w: header %.12s, data %.12s", ErrChecksumMismatch, stored, got)
	}
	return nil
}
