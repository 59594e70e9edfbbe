package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"attest/internal/certificate/certid"
	"attest/internal/certificate/ledger"
	"attest/internal/certificate/models"
	"attest/internal/sentinel"
	dErrors "attest/pkg/domain-errors"
)

// Verify resolves the composite trust state of a claimed certificate
// identifier. It is a public, unauthenticated read path.
//
// A malformed identifier short-circuits before any store or ledger I/O. For
// well-formed identifiers the record store and the ledger are consulted
// concurrently; the ledger leg is bounded by its own timeout and can only
// downgrade the verdict, never fail the call. Only a record store failure is
// a verification error.
func (s *Service) Verify(ctx context.Context, claimedID string) (*models.VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.Verify")
	defer span.End()

	if !certid.Valid(claimedID) {
		s.countVerdict(models.VerdictMalformed)
		return &models.VerificationResult{
			Verdict: models.VerdictMalformed,
			Reason:  "identifier is not a recognized certificate id format",
		}, nil
	}
	certificateID := certid.Normalize(claimedID)
	span.SetAttributes(attribute.String("certificate.id", certificateID))

	// Each goroutine writes only its own result fields.
	var (
		record    *models.CertificateRecord
		entry     *models.LedgerCertificate
		ledgerErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := s.records.FindByCertificateID(gctx, certificateID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return err
		}
		record = rec
		return nil
	})
	g.Go(func() error {
		got, err := s.queryLedger(gctx, certificateID)
		if err != nil {
			ledgerErr = err
			return nil
		}
		entry = got
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up certificate record")
	}

	if record == nil {
		s.countVerdictLabel("not_found")
		return &models.VerificationResult{
			Reason: "no certificate exists with this identifier",
		}, nil
	}

	result := &models.VerificationResult{
		Found:  true,
		Record: record,
	}
	switch {
	case entry != nil && entry.Exists:
		result.Verdict = models.VerdictLedgerConfirmed
		result.Ledger = entry
		result.Reason = "ledger entry matches the issued record"
	case ledgerErr != nil && errors.Is(ledgerErr, ledger.ErrNotFound):
		result.Verdict = models.VerdictRecordOnly
		result.Reason = "record exists but the ledger holds no entry for it"
	case ledgerErr != nil:
		// Timeout or outage. The credential may well be on the ledger; the
		// wording must not read as a fraud finding.
		result.Verdict = models.VerdictRecordOnly
		result.Reason = "record exists; ledger confirmation is temporarily unavailable"
		s.logger.WarnContext(ctx, "ledger lookup degraded during verification",
			"certificate_id", certificateID,
			"error", ledgerErr,
		)
	default:
		result.Verdict = models.VerdictRecordOnly
		result.Reason = "record exists but the ledger holds no entry for it"
	}

	s.countVerdict(result.Verdict)
	return result, nil
}

func (s *Service) countVerdict(v models.Verdict) {
	s.countVerdictLabel(string(v))
}

func (s *Service) countVerdictLabel(label string) {
	if s.metrics != nil {
		s.metrics.Verifications.WithLabelValues(label).Inc()
	}
}
