package models

import (
	"time"

	id "attest/pkg/domain"
)

// CertificateRecord is the mutable, queryable mirror of an issued credential.
// It is created once by the issuance path and never deleted; only the ledger
// confirmation fields may change, exactly once, via reconciliation.
type CertificateRecord struct {
	CertificateID string
	IssuerID      id.IssuerID
	HolderID      id.HolderID
	RollNumber    string
	HolderName    string
	Course        string
	Grade         string
	IssuerName    string
	LedgerTxRef   string
	LedgerOK      bool
	IssuedAt      time.Time
}

// LedgerCertificate is the authoritative, write-once ledger entry.
type LedgerCertificate struct {
	CertificateID string
	RollNumber    string
	HolderName    string
	Course        string
	IssuerName    string
	Grade         string
	IssuedAt      time.Time
	IssuerAddress string
	Exists        bool
}

// IssuanceResult is returned on a fully successful issuance: the ledger holds
// the credential and the mirror record is persisted.
type IssuanceResult struct {
	CertificateID string
	LedgerTxRef   string
}

// Verdict is the composite trust state of a verification. It is deliberately
// not a boolean: a record can be real while ledger confirmation is
// unobtainable, and that distinction must reach the caller.
type Verdict string

const (
	// VerdictLedgerConfirmed means the mirror record exists and the ledger
	// holds a matching entry.
	VerdictLedgerConfirmed Verdict = "ledger_confirmed"
	// VerdictRecordOnly means the mirror record exists but ledger
	// confirmation could not be obtained: the ledger has no entry, or the
	// lookup failed or timed out. It does not imply the credential is
	// fraudulent.
	VerdictRecordOnly Verdict = "record_only"
	// VerdictMalformed means the claimed identifier failed syntactic
	// validation; no lookups were performed.
	VerdictMalformed Verdict = "malformed"
)

// VerificationResult carries the composite verdict plus everything the caller
// needs to render an audit trail.
type VerificationResult struct {
	Found   bool
	Verdict Verdict
	Reason  string

	Record *CertificateRecord
	Ledger *LedgerCertificate
}
