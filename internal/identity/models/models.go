package models

import (
	"time"

	"github.com/google/uuid"

	id "attest/pkg/domain"
)

// This file contains pure domain models for identity: entities that should
// not depend on transport or HTTP-specific concerns.

// Issuer is an institution entitled to issue certificates.
type Issuer struct {
	ID           id.IssuerID
	Name         string
	Email        string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HolderStatus is the lifecycle state of a holder account.
type HolderStatus string

const (
	HolderActive    HolderStatus = "active"
	HolderGraduated HolderStatus = "graduated"
	HolderSuspended HolderStatus = "suspended"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s HolderStatus) Valid() bool {
	switch s {
	case HolderActive, HolderGraduated, HolderSuspended:
		return true
	}
	return false
}

// Holder is a credential subject enrolled with an issuer. The
// (issuer, roll number) pair is unique; only active holders may authenticate.
type Holder struct {
	ID         id.HolderID
	IssuerID   id.IssuerID
	RollNumber string
	Name       string
	Email      string
	Status     HolderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanAuthenticate reports whether the holder may log in.
func (h *Holder) CanAuthenticate() bool {
	return h.Status == HolderActive
}

// Session is an authenticated principal's server-side session row.
// The token is opaque and unguessable; expiry is absolute, never sliding.
type Session struct {
	Token             string
	PrincipalID       uuid.UUID
	Kind              id.PrincipalKind
	DeviceDisplayName string
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

// ExpiredAt reports whether the session is past its absolute expiry at the
// given instant.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Principal is the resolved identity behind a validated session.
// Exactly one of Issuer or Holder is set, matching Kind.
type Principal struct {
	Kind   id.PrincipalKind
	Issuer *Issuer
	Holder *Holder
}

// ID returns the underlying principal identifier.
func (p *Principal) ID() uuid.UUID {
	switch p.Kind {
	case id.KindIssuer:
		return uuid.UUID(p.Issuer.ID)
	case id.KindHolder:
		return uuid.UUID(p.Holder.ID)
	}
	return uuid.Nil
}
