// Package checksum provides content digests used for change detection
// (note contents, taxonomy files, proposal fingerprints).
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short returns a truncated digest suitable for embedding in human-facing
// documents (ledger entry fingerprints).
func Short(data []byte) string {
	return Sum(data)[:12]
}

// Fields digests an ordered list of string fields. The fields are joined
// with an unambiguous separator so ("ab","c") and ("a","bc") differ.
func Fields(fields ...string) string {
	return Short([]byte(strings.Join(fields, "\x1f")))
}
