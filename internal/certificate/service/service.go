// Package service implements credential issuance and verification over the
// ledger gateway and the mirror record store.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"attest/internal/certificate/ledger"
	"attest/internal/certificate/metrics"
	"attest/internal/certificate/models"
	identitymodels "attest/internal/identity/models"
	id "attest/pkg/domain"
)

// RecordStore defines the persistence interface for mirror records.
// Error Contract: FindByCertificateID returns sentinel.ErrNotFound (wrapped)
// when no record exists; Insert returns sentinel.ErrAlreadyUsed (wrapped) on
// a duplicate certificate identifier.
type RecordStore interface {
	Insert(ctx context.Context, record *models.CertificateRecord) error
	FindByCertificateID(ctx context.Context, certificateID string) (*models.CertificateRecord, error)
	ListByIssuer(ctx context.Context, issuerID id.IssuerID) ([]*models.CertificateRecord, error)
	ListByHolder(ctx context.Context, holderID id.HolderID) ([]*models.CertificateRecord, error)
}

// IssuerDirectory resolves issuer accounts for issuance preconditions.
type IssuerDirectory interface {
	FindByID(ctx context.Context, issuerID id.IssuerID) (*identitymodels.Issuer, error)
}

// HolderDirectory resolves holder accounts for issuance preconditions.
type HolderDirectory interface {
	FindByID(ctx context.Context, holderID id.HolderID) (*identitymodels.Holder, error)
}

const (
	defaultSubmitTimeout = 30 * time.Second
	defaultQueryTimeout  = 5 * time.Second
)

// Service coordinates the dual-write issuance path and the composite
// verification path.
type Service struct {
	records       RecordStore
	ledger        ledger.Gateway
	issuers       IssuerDirectory
	holders       HolderDirectory
	submitTimeout time.Duration
	queryTimeout  time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	now           func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLedgerTimeouts bounds the ledger legs. The submit timeout covers the
// issuance write; the query timeout bounds the verification lookup so a slow
// ledger degrades the verdict instead of stalling the request.
func WithLedgerTimeouts(submit, query time.Duration) Option {
	return func(s *Service) {
		if submit > 0 {
			s.submitTimeout = submit
		}
		if query > 0 {
			s.queryTimeout = query
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a certificate service over the given stores and gateway.
func New(records RecordStore, gw ledger.Gateway, issuers IssuerDirectory, holders HolderDirectory, opts ...Option) *Service {
	svc := &Service{
		records:       records,
		ledger:        gw,
		issuers:       issuers,
		holders:       holders,
		submitTimeout: defaultSubmitTimeout,
		queryTimeout:  defaultQueryTimeout,
		tracer:        otel.Tracer("attest/certificate"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// ListByIssuer returns the issuer's mirror records, newest first.
func (s *Service) ListByIssuer(ctx context.Context, issuerID id.IssuerID) ([]*models.CertificateRecord, error) {
	return s.records.ListByIssuer(ctx, issuerID)
}

// ListByHolder returns the holder's mirror records, newest first.
func (s *Service) ListByHolder(ctx context.Context, holderID id.HolderID) ([]*models.CertificateRecord, error) {
	return s.records.ListByHolder(ctx, holderID)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) countIssuanceFailure(code string) {
	if s.metrics != nil {
		s.metrics.IssuanceFailures.WithLabelValues(code).Inc()
	}
}
