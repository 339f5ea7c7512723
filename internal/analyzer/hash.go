package analyzer

import (
	"crypto/sha1"
	"encoding/hex"
)

// HashString returns the hex SHA-1 digest of s. SHA-1 is used for
// structural fingerprints: collision resistance against adversaries is
// not required, only a negligible accidental-collision probability, and
// the digest must stay byte-stable across releases because cached and
// baselined fingerprints are compared as strings.
func HashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
