package handler

import (
	"net/http"
	"time"

	"attest/internal/certificate/models"
	"attest/pkg/platform/httputil"
)

// IssueCertificateResponse is returned on a fully successful issuance.
type IssueCertificateResponse struct {
	CertificateID string `json:"certificate_id"`
	LedgerTxRef   string `json:"ledger_tx_ref"`
}

// PendingRecordResponse echoes the record that still needs its mirror write.
type PendingRecordResponse struct {
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

// PartialFailureResponse reports the reconciliation-pending state: the
// ledger holds the credential but the mirror record is missing.
type PartialFailureResponse struct {
	Error         string                `json:"error"`
	CertificateID string                `json:"certificate_id"`
	LedgerTxRef   string                `json:"ledger_tx_ref"`
	Pending       PendingRecordResponse `json:"pending"`
}

// CertificateResponse is the mirror-record view returned on list routes.
type CertificateResponse struct {
	CertificateID string    `json:"certificate_id"`
	RollNumber    string    `json:"roll_number"`
	HolderName    string    `json:"holder_name"`
	Course        string    `json:"course"`
	Grade         string    `json:"grade"`
	IssuerName    string    `json:"issuer_name"`
	LedgerTxRef   string    `json:"ledger_tx_ref"`
	LedgerOK      bool      `json:"ledger_ok"`
	IssuedAt      time.Time `json:"issued_at"`
}

// CertificateListResponse wraps a record list.
type CertificateListResponse struct {
	Certificates []CertificateResponse `json:"certificates"`
}

// LedgerEntryResponse is the ledger's view of the credential.
type LedgerEntryResponse struct {
	RollNumber    string    `json:"roll_number"`
	HolderName    string    `json:"holder_name"`
	Course        string    `json:"course"`
	IssuerName    string    `json:"issuer_name"`
	Grade         string    `json:"grade"`
	IssuedAt      time.Time `json:"issued_at"`
	IssuerAddress string    `json:"issuer_address"`
}

// VerificationResponse reports the composite trust state of a claimed
// identifier.
type VerificationResponse struct {
	Found   bool                 `json:"found"`
	Verdict string               `json:"verdict,omitempty"`
	Reason  string               `json:"reason"`
	Record  *CertificateResponse `json:"record,omitempty"`
	Ledger  *LedgerEntryResponse `json:"ledger,omitempty"`
}

func toCertificateResponse(record *models.CertificateRecord) CertificateResponse {
	return CertificateResponse{
		CertificateID: record.CertificateID,
		RollNumber:    record.RollNumber,
		HolderName:    record.HolderName,
		Course:        record.Course,
		Grade:         record.Grade,
		IssuerName:    record.IssuerName,
		LedgerTxRef:   record.LedgerTxRef,
		LedgerOK:      record.LedgerOK,
		IssuedAt:      record.IssuedAt,
	}
}

func toPendingResponse(record *models.CertificateRecord) PendingRecordResponse {
	return PendingRecordResponse{
		CertificateID: record.CertificateID,
		HolderID:      record.HolderID.String(),
		RollNumber:    record.RollNumber,
		HolderName:    record.HolderName,
		Course:        record.Course,
		Grade:         record.Grade,
		IssuerName:    record.IssuerName,
		LedgerTxRef:   record.LedgerTxRef,
		IssuedAt:      record.IssuedAt,
	}
}

func toVerificationResponse(result *models.VerificationResult) *VerificationResponse {
	resp := &VerificationResponse{
		Found:   result.Found,
		Verdict: string(result.Verdict),
		Reason:  result.Reason,
	}
	if result.Record != nil {
		record := toCertificateResponse(result.Record)
		resp.Record = &record
	}
	if result.Ledger != nil {
		resp.Ledger = &LedgerEntryResponse{
			RollNumber:    result.Ledger.RollNumber,
			HolderName:    result.Ledger.HolderName,
			Course:        result.Ledger.Course,
			IssuerName:    result.Ledger.IssuerName,
			Grade:         result.Ledger.Grade,
			IssuedAt:      result.Ledger.IssuedAt,
			IssuerAddress: result.Ledger.IssuerAddress,
		}
	}
	return resp
}

func writeRecordList(w http.ResponseWriter, records []*models.CertificateRecord) {
	resp := CertificateListResponse{Certificates: make([]CertificateResponse, 0, len(records))}
	for _, record := range records {
		resp.Certificates = append(resp.Certificates, toCertificateResponse(record))
	}
	httputil.WriteJSON(w, http.StatusOK, &resp)
}
