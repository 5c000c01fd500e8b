package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainFields is the domain prefix for document content hashes.
// Version suffix enables future algorithm migration.
const DomainFields = "firedoc/fields/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00}) // Null separator
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash computes a stable hash of a document's fields.
// Field order does not affect the result.
func ContentHash(fields Map) (string, error) {
	canonical, err := MarshalCanonical(fields)
	if err != nil {
		return "", fmt.Errorf("ContentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFields, canonical), nil
}

// MustContentHash is like ContentHash but panics on error.
// Use only in tests or when fields are known to be valid.
func MustContentHash(fields Map) string {
	h, err := ContentHash(fields)
	if err != nil {
		panic(err)
	}
	return h
}
