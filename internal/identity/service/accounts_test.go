package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attest/internal/identity/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/secrets"
)

func TestRegisterIssuer(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	issuer, err := f.svc.RegisterIssuer(ctx, RegisterIssuerParams{
		Name:     "  Test University  ",
		Email:    "registrar@test.edu",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	assert.Equal(t, "Test University", issuer.Name)
	assert.False(t, issuer.ID.IsNil())
	assert.NotEqual(t, "correct horse battery staple", issuer.PasswordHash)
	require.NoError(t, secrets.Verify("correct horse battery staple", issuer.PasswordHash))
}

func TestRegisterIssuerValidation(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterIssuer(ctx, RegisterIssuerParams{Name: "", Email: "a@b.c", Password: "pw"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRegisterIssuerDuplicateEmail(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	f.registerIssuer(t)

	_, err := f.svc.RegisterIssuer(ctx, RegisterIssuerParams{
		Name:     "Shadow University",
		Email:    "REGISTRAR@test.edu",
		Password: "another password",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCreateHolder(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	issuer := f.registerIssuer(t)

	holder, err := f.svc.CreateHolder(ctx, issuer.ID, CreateHolderParams{
		RollNumber: "CS-2024-117",
		Name:       "Asha Verma",
		Email:      "asha@test.edu",
	})
	require.NoError(t, err)
	assert.Equal(t, issuer.ID, holder.IssuerID)
	assert.Equal(t, models.HolderActive, holder.Status)
}

func TestCreateHolderRejectsDuplicateRoll(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	issuer := f.registerIssuer(t)
	f.enrollHolder(t, issuer, models.HolderActive)

	_, err := f.svc.CreateHolder(ctx, issuer.ID, CreateHolderParams{
		RollNumber: "CS-2024-117",
		Name:       "Another Student",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCreateHolderRejectsUnknownIssuer(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateHolder(ctx, id.NewIssuerID(), CreateHolderParams{
		RollNumber: "CS-1",
		Name:       "Someone",
	})
	require.Error(t, err)
}

func TestCreateHolderRejectsUnknownStatus(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	issuer := f.registerIssuer(t)

	_, err := f.svc.CreateHolder(ctx, issuer.ID, CreateHolderParams{
		RollNumber: "CS-1",
		Name:       "Someone",
		Status:     models.HolderStatus("alumnus"),
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestListHolders(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	issuer := f.registerIssuer(t)

	_, err := f.svc.CreateHolder(ctx, issuer.ID, CreateHolderParams{RollNumber: "CS-2", Name: "Zoya Khan"})
	require.NoError(t, err)
	_, err = f.svc.CreateHolder(ctx, issuer.ID, CreateHolderParams{RollNumber: "CS-1", Name: "Asha Verma"})
	require.NoError(t, err)

	holders, err := f.svc.ListHolders(ctx, issuer.ID)
	require.NoError(t, err)
	require.Len(t, holders, 2)
	assert.Equal(t, "Asha Verma", holders[0].Name)
	assert.Equal(t, "Zoya Khan", holders[1].Name)
}
