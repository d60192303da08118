package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashString creates a SHA-256 hash of the input string
func HashString(input string) string {
	h := sha256.New()
	h.Write([]byte(input))

	return hex.EncodeToString(h.Sum(nil))
}

// HashEmail hashes a normalised email address so the same sender maps to the
// same key regardless of case or surrounding whitespace.
func HashEmail(email string) string {
	return HashString(strings.ToLower(strings.TrimSpace(email)))
}

// IPHasher hashes client IPs for logs. The salt is per process, so hashes
// correlate requests within one run but cannot be reversed by lookup table.
type IPHasher struct {
	salt string
}

func NewIPHasher(salt string) *IPHasher {
	return &IPHasher{salt: salt}
}

// Hash returns a 16 character hash of ip.
func (h *IPHasher) Hash(ip string) string {
	if h == nil {
		return HashString(ip)[:16]
	}

	return HashString(ip + h.salt)[:16]
}
