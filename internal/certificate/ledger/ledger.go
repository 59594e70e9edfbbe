// Package ledger defines the gateway to the external append-only credential
// ledger and its implementations. The wire protocol behind the gateway is
// opaque to the rest of the service.
package ledger

import (
	"context"

	"attest/internal/certificate/models"
	"attest/internal/sentinel"
)

// Sentinel errors returned by gateway implementations. Callers translate
// these into domain errors exactly once, at the service layer.
var (
	// ErrNotFound means the ledger holds no entry for the identifier.
	ErrNotFound = sentinel.ErrNotFound
	// ErrDuplicate means the ledger rejected a write because an entry with
	// the same deterministic identifier already exists.
	ErrDuplicate = sentinel.ErrDuplicate
	// ErrUnavailable means the ledger could not be reached or timed out.
	ErrUnavailable = sentinel.ErrUnavailable
)

// SubmitRequest carries the issuance inputs for a ledger transaction.
// The ledger derives the certificate identifier from roll number, course,
// and issuer name; identical triples always map to the same identifier.
type SubmitRequest struct {
	RollNumber string
	HolderName string
	Course     string
	IssuerName string
	Grade      string
}

// Receipt is the ledger's acknowledgement of a confirmed write.
type Receipt struct {
	CertificateID string
	TxRef         string
}

// Gateway is the capability interface to the credential ledger. Both calls
// are network-bound and must be given bounded contexts by callers.
type Gateway interface {
	// Submit writes a credential to the ledger. Returns ErrDuplicate if an
	// entry with the same deterministic identifier already exists and
	// ErrUnavailable (wrapped) on transport failures.
	Submit(ctx context.Context, req SubmitRequest) (*Receipt, error)

	// Query fetches the ledger entry for an identifier. Returns ErrNotFound
	// if no entry exists.
	Query(ctx context.Context, certificateID string) (*models.LedgerCertificate, error)
}
