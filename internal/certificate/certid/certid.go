// Package certid derives and validates deterministic certificate identifiers.
package certid

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// hashIDPattern matches the canonical form: 0x followed by 64 hex digits.
var hashIDPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// legacyPrefix marks free-text identifiers issued before hash-derived IDs.
const legacyPrefix = "CERT-"

// Derive computes the deterministic certificate identifier for an issuance
// triple. Identical inputs always produce the identical identifier, which
// makes re-issuance detectable and gives verifiers a reproducible lookup key.
// Keccak-256 matches the derivation used by the on-ledger contract.
func Derive(rollNumber, course, issuerName string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(rollNumber))
	h.Write([]byte(course))
	h.Write([]byte(issuerName))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Valid reports whether the claimed identifier has an accepted syntactic
// form: the canonical hash encoding or the legacy CERT- prefixed form.
// Validation performs no I/O.
func Valid(claimed string) bool {
	if hashIDPattern.MatchString(claimed) {
		return true
	}
	return strings.HasPrefix(claimed, legacyPrefix) && len(claimed) > len(legacyPrefix)
}

// Normalize lowercases the hex portion of hash-form identifiers so lookups
// are case-insensitive; legacy identifiers pass through unchanged.
func Normalize(claimed string) string {
	if hashIDPattern.MatchString(claimed) {
		return "0x" + strings.ToLower(claimed[2:])
	}
	return claimed
}
