package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash domains. Bump the version when the canonical encoding changes.
const (
	DomainTree      = "sieve/tree/v1"
	DomainSelectors = "sieve/selectors/v1"
)

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a content-addressed ID for a tree. Structurally equal
// trees share a fingerprint regardless of how they were written or built.
func Fingerprint(n Node) (string, error) {
	canonical, err := MarshalCanonical(n)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTree, canonical), nil
}

// SelectorsFingerprint identifies an allow-list. Order of construction does
// not matter.
func SelectorsFingerprint(s Selectors) string {
	var data []byte
	for _, p := range s.desc {
		data = append(data, p...)
		data = append(data, 0x00)
	}
	return hashWithDomain(DomainSelectors, data)
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the tree is known to be valid.
func MustFingerprint(n Node) string {
	id, err := Fingerprint(n)
	if err != nil {
		panic(err)
	}
	return id
}
