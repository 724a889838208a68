// Package checksum fingerprints vocabulary files and exported graphs.
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

// Matches reports whether data hashes to want.
func Matches(data []byte, want string) bool {
	return strings.EqualFold(Sum(data), want)
}

// ETag quotes a checksum for use as an HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// FromETag extracts the checksum from an If-Match or ETag header value.
// Weak tags are accepted; "*" and empty values yield "".
func FromETag(header string) string {
	v := strings.TrimSpace(header)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	if v == "*" {
		return ""
	}
	return v
}
