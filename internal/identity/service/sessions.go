package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"attest/internal/identity/models"
	"attest/internal/sentinel"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/secrets"
)

// dummyHash is compared against when an issuer email is unknown so the
// response time does not reveal whether an account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthenticateIssuer verifies an issuer's email/password pair and opens a
// fresh session. A new session row is written on every successful login;
// existing sessions are never reused or refreshed.
func (s *Service) AuthenticateIssuer(ctx context.Context, email, password, userAgent string) (*models.Session, error) {
	issuer, err := s.issuers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			_ = secrets.Verify(password, dummyHash) //nolint:errcheck // timing equalization only
			s.logAuthFailure(ctx, "issuer_not_found")
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
		}
		s.logAuthFailure(ctx, "issuer_lookup_failed", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up issuer")
	}

	if err := secrets.Verify(password, issuer.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidCredentials) {
			s.logAuthFailure(ctx, "wrong_password", "issuer_id", issuer.ID.String())
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
		}
		return nil, err
	}

	session, err := s.openSession(ctx, uuid.UUID(issuer.ID), id.KindIssuer, userAgent)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "issuer_logged_in", "issuer_id", issuer.ID.String())
	return session, nil
}

// AuthenticateHolder verifies a holder's email/roll number pair and opens a
// fresh session. A wrong email and a wrong roll number both produce
// CodeInvalidCredentials so callers cannot tell which field was wrong;
// an inactive account is reported distinctly.
func (s *Service) AuthenticateHolder(ctx context.Context, email, rollNumber, userAgent string) (*models.Session, error) {
	holder, err := s.holders.FindByEmailAndRoll(ctx, email, rollNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logAuthFailure(ctx, "holder_not_found")
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or roll number")
		}
		s.logAuthFailure(ctx, "holder_lookup_failed", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up holder")
	}

	if !holder.CanAuthenticate() {
		s.logAuthFailure(ctx, "holder_inactive",
			"holder_id", holder.ID.String(),
			"status", string(holder.Status),
		)
		return nil, dErrors.New(dErrors.CodeInactiveAccount, "holder account is not active")
	}

	session, err := s.openSession(ctx, uuid.UUID(holder.ID), id.KindHolder, userAgent)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "holder_logged_in", "holder_id", holder.ID.String())
	return session, nil
}

// Validate resolves a session token to its principal. It fails closed: any
// store error during the check makes the session invalid, never valid.
// Expired sessions are evicted lazily here; no background sweep exists.
func (s *Service) Validate(ctx context.Context, token string) (*models.Principal, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing session token")
	}

	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
		}
		// Fail closed on infrastructure errors.
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "could not validate session")
	}

	if session.ExpiredAt(s.now()) {
		s.evict(ctx, session, "expired")
		if s.metrics != nil {
			s.metrics.SessionsExpired.Inc()
		}
		return nil, dErrors.New(dErrors.CodeSessionExpired, "session expired")
	}

	principal, err := s.resolvePrincipal(ctx, session)
	if err != nil {
		// The principal behind the session is gone or unreadable; drop the
		// session so the stale token cannot be retried indefinitely.
		s.evict(ctx, session, "principal_unresolvable")
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid session")
	}
	return principal, nil
}

// Revoke deletes the session for the given token. Revoking a token that does
// not exist is not an error.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	s.logAudit(ctx, "session_revoked")
	if s.metrics != nil {
		s.metrics.SessionsRevoked.Inc()
		s.metrics.ActiveSessions.Dec()
	}
	return nil
}

func (s *Service) openSession(ctx context.Context, principalID uuid.UUID, kind id.PrincipalKind, userAgent string) (*models.Session, error) {
	token, err := secrets.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.Session{
		Token:             token,
		PrincipalID:       principalID,
		Kind:              kind,
		DeviceDisplayName: deviceDisplayName(userAgent),
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(string(kind)).Inc()
		s.metrics.ActiveSessions.Inc()
	}
	return session, nil
}

func (s *Service) resolvePrincipal(ctx context.Context, session *models.Session) (*models.Principal, error) {
	switch session.Kind {
	case id.KindIssuer:
		issuer, err := s.issuers.FindByID(ctx, id.IssuerID(session.PrincipalID))
		if err != nil {
			return nil, err
		}
		return &models.Principal{Kind: id.KindIssuer, Issuer: issuer}, nil
	case id.KindHolder:
		holder, err := s.holders.FindByID(ctx, id.HolderID(session.PrincipalID))
		if err != nil {
			return nil, err
		}
		return &models.Principal{Kind: id.KindHolder, Holder: holder}, nil
	default:
		return nil, fmt.Errorf("unknown principal kind %q", session.Kind)
	}
}

func (s *Service) evict(ctx context.Context, session *models.Session, reason string) {
	if err := s.sessions.Delete(ctx, session.Token); err != nil {
		s.logger.WarnContext(ctx, "session cleanup failed",
			"reason", reason,
			"error", err,
		)
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Dec()
	}
}

// deviceDisplayName derives a human-readable device label from the
// User-Agent header, e.g. "Chrome on Linux".
func deviceDisplayName(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	name, _ := parsed.Browser()
	os := parsed.OSInfo().Name
	switch {
	case name != "" && os != "":
		return name + " on " + os
	case name != "":
		return name
	default:
		return os
	}
}
