package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// ContentFingerprint hashes a set of labeled payloads in a stable order.
// Dataset fingerprints must not depend on map iteration, so labels are
// sorted before hashing.
func ContentFingerprint(parts map[string][]byte) Hash {
	labels := make([]string, 0, len(parts))
	for label := range parts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var b strings.Builder
	for _, label := range labels {
		fmt.Fprintf(&b, "%s:%x;", label, sha256.Sum256(parts[label]))
	}
	return NewHash([]byte(b.String()))
}

// Short returns a truncated hash suitable for display
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}
