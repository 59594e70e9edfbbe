package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attest/internal/identity/models"
	holderstore "attest/internal/identity/store/holder"
	issuerstore "attest/internal/identity/store/issuer"
	sessionstore "attest/internal/identity/store/session"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

type identityFixture struct {
	svc      *Service
	issuers  *issuerstore.InMemory
	holders  *holderstore.InMemory
	sessions SessionStore
	clock    *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newIdentityFixture(t *testing.T, opts ...Option) *identityFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)}
	issuers := issuerstore.NewInMemory()
	holders := holderstore.NewInMemory()
	sessions := sessionstore.NewInMemory()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return &identityFixture{
		svc:      New(issuers, holders, sessions, opts...),
		issuers:  issuers,
		holders:  holders,
		sessions: sessions,
		clock:    clock,
	}
}

func (f *identityFixture) registerIssuer(t *testing.T) *models.Issuer {
	t.Helper()
	issuer, err := f.svc.RegisterIssuer(context.Background(), RegisterIssuerParams{
		Name:     "Test University",
		Email:    "registrar@test.edu",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	return issuer
}

func (f *identityFixture) enrollHolder(t *testing.T, issuer *models.Issuer, status models.HolderStatus) *models.Holder {
	t.Helper()
	holder, err := f.svc.CreateHolder(context.Background(), issuer.ID, CreateHolderParams{
		RollNumber: "CS-2024-117",
		Name:       "Asha Verma",
		Email:      "asha@test.edu",
		Status:     status,
	})
	require.NoError(t, err)
	return holder
}

func TestAuthenticateIssuer(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	issuer := f.registerIssuer(t)

	session, err := f.svc.AuthenticateIssuer(ctx, "registrar@test.edu", "correct horse battery staple", "")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, id.KindIssuer, session.Kind)
	assert.Equal(t, f.clock.now.Add(24*time.Hour), session.ExpiresAt)
	assert.Equal(t, issuer.ID.String(), session.PrincipalID.String())
}

func TestAuthenticateIssuerWrongCredentials(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	f.registerIssuer(t)

	_, err := f.svc.AuthenticateIssuer(ctx, "registrar@test.edu", "wrong", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCredentials))

	_, err = f.svc.AuthenticateIssuer(ctx, "nobody@test.edu", "correct horse battery staple", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
}

func TestAuthenticateHolder(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	issuer := f.registerIssuer(t)
	f.enrollHolder(t, issuer, models.HolderActive)

	session, err := f.svc.AuthenticateHolder(ctx, "asha@test.edu", "CS-2024-117", "")
	require.NoError(t, err)
	assert.Equal(t, id.KindHolder, session.Kind)

	// Email matching is case-insensitive.
	_, err = f.svc.AuthenticateHolder(ctx, "ASHA@test.edu", "CS-2024-117", "")
	require.NoError(t, err)
}

func TestAuthenticateHolderFailuresAreIndistinguishable(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	issuer := f.registerIssuer(t)
	f.enrollHolder(t, issuer, models.HolderActive)

	_, wrongEmail := f.svc.AuthenticateHolder(ctx, "stranger@test.edu", "CS-2024-117", "")
	_, wrongRoll := f.svc.AuthenticateHolder(ctx, "asha@test.edu", "CS-0000-000", "")
	require.Error(t, wrongEmail)
	require.Error(t, wrongRoll)

	var a, b *dErrors.Error
	require.ErrorAs(t, wrongEmail, &a)
	require.ErrorAs(t, wrongRoll, &b)
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Message, b.Message)
}

func TestAuthenticateHolderInactive(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	issuer := f.registerIssuer(t)
	f.enrollHolder(t, issuer, models.HolderSuspended)

	_, err := f.svc.AuthenticateHolder(ctx, "asha@test.edu", "CS-2024-117", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInactiveAccount))
}

func TestValidateResolvesPrincipal(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	issuer := f.registerIssuer(t)

	session, err := f.svc.AuthenticateIssuer(ctx, "registrar@test.edu", "correct horse battery staple", "")
	require.NoError(t, err)

	principal, err := f.svc.Validate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, id.KindIssuer, principal.Kind)
	require.NotNil(t, principal.Issuer)
	assert.Equal(t, issuer.ID, principal.Issuer.ID)
}

func TestValidateRejectsUnknownAndEmptyTokens(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	_, err := f.svc.Validate(ctx, "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = f.svc.Validate(ctx, "not-a-real-token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateExpiryIsAbsolute(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	f.registerIssuer(t)

	session, err := f.svc.AuthenticateIssuer(ctx, "registrar@test.edu", "correct horse battery staple", "")
	require.NoError(t, err)

	// Continuous activity must not slide the expiry.
	for i := 0; i < 23; i++ {
		f.clock.Advance(time.Hour)
		_, err := f.svc.Validate(ctx, session.Token)
		require.NoError(t, err)
	}

	f.clock.Advance(time.Hour)
	_, err = f.svc.Validate(ctx, session.Token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSessionExpired))

	// The expired session was evicted; the token is now simply unknown.
	_, err = f.svc.Validate(ctx, session.Token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateFailsClosedOnStoreError(t *testing.T) {
	f := newIdentityFixture(t)
	f.svc.sessions = brokenSessions{err: errors.New("connection refused")}

	_, err := f.svc.Validate(context.Background(), "some-token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	f.registerIssuer(t)

	session, err := f.svc.AuthenticateIssuer(ctx, "registrar@test.edu", "correct horse battery staple", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, session.Token))
	_, err = f.svc.Validate(ctx, session.Token)
	require.Error(t, err)

	// Revoking again, or revoking garbage, stays quiet.
	require.NoError(t, f.svc.Revoke(ctx, session.Token))
	require.NoError(t, f.svc.Revoke(ctx, "never-issued"))
	require.NoError(t, f.svc.Revoke(ctx, ""))
}

func TestSessionTokensAreUnique(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	f.registerIssuer(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		session, err := f.svc.AuthenticateIssuer(ctx, "registrar@test.edu", "correct horse battery staple", "")
		require.NoError(t, err)
		assert.False(t, seen[session.Token])
		seen[session.Token] = true
	}
}

func TestDeviceDisplayName(t *testing.T) {
	const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	assert.Equal(t, "Chrome on Linux", deviceDisplayName(chromeUA))
	assert.Equal(t, "", deviceDisplayName(""))
}

type brokenSessions struct {
	err error
}

func (s brokenSessions) Create(context.Context, *models.Session) error { return s.err }

func (s brokenSessions) FindByToken(context.Context, string) (*models.Session, error) {
	return nil, s.err
}

func (s brokenSessions) Delete(context.Context, string) error { return s.err }
