package handler

import (
	"time"

	"attest/internal/certificate/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// IssueCertificateRequest is the payload for issuing a certificate.
type IssueCertificateRequest struct {
	HolderID string `json:"holder_id"`
	Course   string `json:"course"`
	Grade    string `json:"grade"`
}

// ReconcileRequest carries the pending record of a partially failed issuance
// back for a mirror-write retry. Its fields mirror PartialFailureResponse.
type ReconcileRequest struct {
	CertificateID string    `json:"certificate_id"`
	HolderID      string    `json:"holder_id"`
	RollNumber    string    `json:"roll_number"`
	HolderName    string    `json:"holder_name"`
	Course        string    `json:"course"`
	Grade         string    `json:"grade"`
	IssuerName    string    `json:"issuer_name"`
	LedgerTxRef   string    `json:"ledger_tx_ref"`
	IssuedAt      time.Time `json:"issued_at"`
}

// toPendingRecord rebuilds the pending mirror record. The issuer identity
// comes from the session, never from the payload.
func (r *ReconcileRequest) toPendingRecord(issuerID id.IssuerID) (*models.CertificateRecord, error) {
	holderID, err := id.ParseHolderID(r.HolderID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid holder id")
	}
	return &models.CertificateRecord{
		CertificateID: r.CertificateID,
		IssuerID:      issuerID,
		HolderID:      holderID,
		RollNumber:    r.RollNumber,
		HolderName:    r.HolderName,
		Course:        r.Course,
		Grade:         r.Grade,
		IssuerName:    r.IssuerName,
		LedgerTxRef:   r.LedgerTxRef,
		LedgerOK:      true,
		IssuedAt:      r.IssuedAt,
	}, nil
}
