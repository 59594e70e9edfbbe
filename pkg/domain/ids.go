// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "attest/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an IssuerID where a HolderID is expected.
type (
	IssuerID uuid.UUID
	HolderID uuid.UUID
)

// PrincipalKind discriminates the two authenticated principal types.
type PrincipalKind string

const (
	KindIssuer PrincipalKind = "issuer"
	KindHolder PrincipalKind = "holder"
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseIssuerID(s string) (IssuerID, error) {
	id, err := parseUUID(s, "issuer ID")
	return IssuerID(id), err
}

func ParseHolderID(s string) (HolderID, error) {
	id, err := parseUUID(s, "holder ID")
	return HolderID(id), err
}

// String methods - for logging and debugging.

func (id IssuerID) String() string { return uuid.UUID(id).String() }
func (id HolderID) String() string { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id IssuerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id HolderID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewIssuerID returns a fresh random issuer identifier.
func NewIssuerID() IssuerID { return IssuerID(uuid.New()) }

// NewHolderID returns a fresh random holder identifier.
func NewHolderID() HolderID { return HolderID(uuid.New()) }

// parseUUID is the shared validation logic. Nil UUIDs are allowed here;
// use IsNil() at the service layer so store lookups can still return
// proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return id, nil
}
