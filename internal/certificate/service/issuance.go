package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"attest/internal/certificate/certid"
	"attest/internal/certificate/ledger"
	"attest/internal/certificate/models"
	identitymodels "attest/internal/identity/models"
	"attest/internal/sentinel"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// IssueRequest carries the issuer-supplied issuance inputs.
type IssueRequest struct {
	HolderID id.HolderID
	Course   string
	Grade    string
}

// PartialFailure is returned when the ledger write succeeded but the mirror
// record could not be persisted. The pending record carries the confirmed
// ledger tx ref so the caller can reconcile forward via RetryPersist; the
// ledger is never written a second time for the same issuance.
type PartialFailure struct {
	Pending *models.CertificateRecord
	Err     error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("certificate %s confirmed on ledger but record not persisted: %v", e.Pending.CertificateID, e.Err)
}

func (e *PartialFailure) Unwrap() error {
	return e.Err
}

// Issue writes the credential to the ledger first, then mirrors it into the
// record store. Nothing is persisted anywhere if the ledger rejects the
// write. A persistence failure after ledger confirmation surfaces as a
// PartialFailure, never as a rollback: the ledger entry is immutable.
func (s *Service) Issue(ctx context.Context, issuerID id.IssuerID, req IssueRequest) (*models.IssuanceResult, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.Issue")
	defer span.End()

	course := strings.TrimSpace(req.Course)
	grade := strings.TrimSpace(req.Grade)
	if course == "" || grade == "" {
		s.countIssuanceFailure(string(dErrors.CodeValidation))
		return nil, dErrors.New(dErrors.CodeValidation, "course and grade are required")
	}

	issuer, err := s.issuers.FindByID(ctx, issuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.countIssuanceFailure(string(dErrors.CodeUnauthorized))
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "issuer account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load issuer")
	}

	holder, err := s.holders.FindByID(ctx, req.HolderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.countIssuanceFailure(string(dErrors.CodeInvalidHolder))
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidHolder, "holder not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load holder")
	}
	if holder.IssuerID != issuerID {
		s.countIssuanceFailure(string(dErrors.CodeInvalidHolder))
		return nil, dErrors.New(dErrors.CodeInvalidHolder, "holder is not enrolled with this issuer")
	}
	if holder.Status != identitymodels.HolderActive {
		s.countIssuanceFailure(string(dErrors.CodeInvalidHolder))
		return nil, dErrors.New(dErrors.CodeInvalidHolder, "holder account is not active")
	}

	certificateID := certid.Derive(holder.RollNumber, course, issuer.Name)
	span.SetAttributes(attribute.String("certificate.id", certificateID))

	// The deterministic identifier makes re-issuance visible before touching
	// the ledger at all.
	if _, err := s.records.FindByCertificateID(ctx, certificateID); err == nil {
		s.countIssuanceFailure(string(dErrors.CodeAlreadyIssued))
		return nil, dErrors.New(dErrors.CodeAlreadyIssued, "certificate already issued for this holder and course")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check existing record")
	}

	receipt, err := s.submitToLedger(ctx, ledger.SubmitRequest{
		RollNumber: holder.RollNumber,
		HolderName: holder.Name,
		Course:     course,
		IssuerName: issuer.Name,
		Grade:      grade,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			s.countIssuanceFailure(string(dErrors.CodeAlreadyIssued))
			return nil, dErrors.Wrap(err, dErrors.CodeAlreadyIssued, "certificate already on ledger")
		}
		s.countIssuanceFailure(string(dErrors.CodeLedgerRejected))
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerRejected, "ledger write failed")
	}

	record := &models.CertificateRecord{
		CertificateID: receipt.CertificateID,
		IssuerID:      issuerID,
		HolderID:      holder.ID,
		RollNumber:    holder.RollNumber,
		HolderName:    holder.Name,
		Course:        course,
		Grade:         grade,
		IssuerName:    issuer.Name,
		LedgerTxRef:   receipt.TxRef,
		LedgerOK:      true,
		IssuedAt:      s.now().UTC(),
	}

	if err := s.records.Insert(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// A concurrent issuance landed the record first. The ledger entry
			// and the record agree, so this attempt lost a benign race.
			s.countIssuanceFailure(string(dErrors.CodeAlreadyIssued))
			return nil, dErrors.Wrap(err, dErrors.CodeAlreadyIssued, "certificate already issued for this holder and course")
		}
		s.countIssuanceFailure(string(dErrors.CodeRecordPersistFailed))
		s.logger.ErrorContext(ctx, "record persist failed after ledger confirmation",
			"certificate_id", record.CertificateID,
			"ledger_tx_ref", record.LedgerTxRef,
			"error", err,
		)
		return nil, &PartialFailure{
			Pending: record,
			Err:     dErrors.Wrap(err, dErrors.CodeRecordPersistFailed, "ledger confirmed but record not persisted"),
		}
	}

	if s.metrics != nil {
		s.metrics.CertificatesIssued.Inc()
	}
	s.logAudit(ctx, "certificate_issued",
		"certificate_id", record.CertificateID,
		"issuer_id", issuerID.String(),
		"holder_id", holder.ID.String(),
		"ledger_tx_ref", record.LedgerTxRef,
	)
	return &models.IssuanceResult{
		CertificateID: record.CertificateID,
		LedgerTxRef:   record.LedgerTxRef,
	}, nil
}

// RetryPersist retries only the mirror write of a partially failed issuance.
// It never re-submits to the ledger; it instead confirms the ledger already
// holds the entry before inserting. Retrying an issuance that has since
// landed is a no-op success.
func (s *Service) RetryPersist(ctx context.Context, pending *models.CertificateRecord) (*models.IssuanceResult, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.RetryPersist")
	defer span.End()

	if pending == nil || pending.CertificateID == "" || pending.LedgerTxRef == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "pending record with certificate id and ledger tx ref is required")
	}
	if certid.Derive(pending.RollNumber, pending.Course, pending.IssuerName) != pending.CertificateID {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "certificate id does not match the record contents")
	}
	if s.metrics != nil {
		s.metrics.PersistRetries.Inc()
	}

	entry, err := s.queryLedger(ctx, pending.CertificateID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "ledger holds no entry for this certificate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerRejected, "ledger confirmation unavailable")
	}
	if !entry.Exists {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ledger holds no entry for this certificate")
	}

	// The identifier binds roll number, course, and issuer name, but not the
	// rest of the payload. The ledger entry is authoritative for those
	// fields, so the mirror row takes them from the entry rather than from
	// whatever the caller resubmitted.
	record := *pending
	record.HolderName = entry.HolderName
	record.Grade = entry.Grade
	record.LedgerOK = true
	record.IssuedAt = entry.IssuedAt
	if record.IssuedAt.IsZero() {
		record.IssuedAt = s.now().UTC()
	}
	if err := s.records.Insert(ctx, &record); err != nil && !errors.Is(err, sentinel.ErrAlreadyUsed) {
		s.countIssuanceFailure(string(dErrors.CodeRecordPersistFailed))
		return nil, &PartialFailure{
			Pending: pending,
			Err:     dErrors.Wrap(err, dErrors.CodeRecordPersistFailed, "record still not persisted"),
		}
	}

	s.logAudit(ctx, "certificate_record_reconciled",
		"certificate_id", record.CertificateID,
		"ledger_tx_ref", record.LedgerTxRef,
	)
	return &models.IssuanceResult{
		CertificateID: record.CertificateID,
		LedgerTxRef:   record.LedgerTxRef,
	}, nil
}

func (s *Service) submitToLedger(ctx context.Context, req ledger.SubmitRequest) (*ledger.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	start := time.Now()
	receipt, err := s.ledger.Submit(ctx, req)
	if s.metrics != nil {
		s.metrics.LedgerSubmitDuration.Observe(time.Since(start).Seconds())
	}
	return receipt, err
}

func (s *Service) queryLedger(ctx context.Context, certificateID string) (*models.LedgerCertificate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	start := time.Now()
	entry, err := s.ledger.Query(ctx, certificateID)
	if s.metrics != nil {
		s.metrics.LedgerQueryDuration.Observe(time.Since(start).Seconds())
	}
	return entry, err
}
