package record

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attest/internal/certificate/models"
	"attest/internal/sentinel"
	id "attest/pkg/domain"
)

func newRecord(certificateID string, issuerID id.IssuerID, holderID id.HolderID, issuedAt time.Time) *models.CertificateRecord {
	return &models.CertificateRecord{
		CertificateID: certificateID,
		IssuerID:      issuerID,
		HolderID:      holderID,
		RollNumber:    "CS-2024-117",
		HolderName:    "Asha Verma",
		Course:        "Distributed Systems",
		Grade:         "A",
		IssuerName:    "Test University",
		LedgerTxRef:   "0xdeadbeef",
		LedgerOK:      true,
		IssuedAt:      issuedAt,
	}
}

func TestInMemoryInsertAndFind(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	issuerID, holderID := id.NewIssuerID(), id.NewHolderID()

	rec := newRecord("0xabc", issuerID, holderID, time.Now().UTC())
	require.NoError(t, s.Insert(ctx, rec))

	got, err := s.FindByCertificateID(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, rec.HolderName, got.HolderName)
	assert.True(t, got.LedgerOK)

	// Returned records are copies; mutations must not leak into the store.
	got.Grade = "F"
	again, err := s.FindByCertificateID(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "A", again.Grade)
}

func TestInMemoryInsertRejectsDuplicate(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	issuerID, holderID := id.NewIssuerID(), id.NewHolderID()

	require.NoError(t, s.Insert(ctx, newRecord("0xabc", issuerID, holderID, time.Now().UTC())))
	err := s.Insert(ctx, newRecord("0xabc", issuerID, holderID, time.Now().UTC()))
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestInMemoryFindNotFound(t *testing.T) {
	s := NewInMemory()
	_, err := s.FindByCertificateID(context.Background(), "0xmissing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryListOrdering(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	issuerID := id.NewIssuerID()
	holderID := id.NewHolderID()
	otherHolder := id.NewHolderID()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Insert(ctx, newRecord("0xold", issuerID, holderID, base)))
	require.NoError(t, s.Insert(ctx, newRecord("0xnew", issuerID, holderID, base.Add(time.Hour))))
	require.NoError(t, s.Insert(ctx, newRecord("0xother", issuerID, otherHolder, base.Add(2*time.Hour))))

	byIssuer, err := s.ListByIssuer(ctx, issuerID)
	require.NoError(t, err)
	require.Len(t, byIssuer, 3)
	assert.Equal(t, "0xother", byIssuer[0].CertificateID)
	assert.Equal(t, "0xnew", byIssuer[1].CertificateID)
	assert.Equal(t, "0xold", byIssuer[2].CertificateID)

	byHolder, err := s.ListByHolder(ctx, holderID)
	require.NoError(t, err)
	require.Len(t, byHolder, 2)
	assert.Equal(t, "0xnew", byHolder[0].CertificateID)

	empty, err := s.ListByIssuer(ctx, id.NewIssuerID())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
