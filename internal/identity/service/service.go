package service

import (
	"context"
	"log/slog"
	"time"

	"attest/internal/identity/metrics"
	"attest/internal/identity/models"
	id "attest/pkg/domain"
)

// IssuerStore defines the persistence interface for issuer accounts.
// Error Contract: all Find methods return sentinel.ErrNotFound (wrapped)
// when the entity doesn't exist.
type IssuerStore interface {
	Create(ctx context.Context, issuer *models.Issuer) error
	FindByID(ctx context.Context, issuerID id.IssuerID) (*models.Issuer, error)
	FindByEmail(ctx context.Context, email string) (*models.Issuer, error)
}

// HolderStore defines the persistence interface for holder accounts.
type HolderStore interface {
	Create(ctx context.Context, holder *models.Holder) error
	FindByID(ctx context.Context, holderID id.HolderID) (*models.Holder, error)
	FindByEmailAndRoll(ctx context.Context, email, rollNumber string) (*models.Holder, error)
	ListByIssuer(ctx context.Context, issuerID id.IssuerID) ([]*models.Holder, error)
}

// SessionStore defines the persistence interface for session rows.
// Delete must be idempotent: removing an unknown token is not an error.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

const defaultSessionTTL = 24 * time.Hour

// Service manages principal accounts and their session lifecycle.
type Service struct {
	issuers    IssuerStore
	holders    HolderStore
	sessions   SessionStore
	sessionTTL time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
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

// WithSessionTTL configures the absolute time-to-live for sessions.
// If not set or set to zero/negative, defaults to 24 hours.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithClock overrides the time source, used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs an identity service over the given stores.
func New(issuers IssuerStore, holders HolderStore, sessions SessionStore, opts ...Option) *Service {
	svc := &Service{
		issuers:    issuers,
		holders:    holders,
		sessions:   sessions,
		sessionTTL: defaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.sessionTTL <= 0 {
		svc.sessionTTL = defaultSessionTTL
	}
	return svc
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) logAuthFailure(ctx context.Context, reason string, attributes ...any) {
	args := append(attributes, "event", "auth_failed", "reason", reason)
	s.logger.WarnContext(ctx, "auth_failed", args...)
	if s.metrics != nil {
		s.metrics.AuthFailures.Inc()
	}
}
