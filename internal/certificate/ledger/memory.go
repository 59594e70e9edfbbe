package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"attest/internal/certificate/certid"
	"attest/internal/certificate/models"
)

// InMemory is a process-local ledger for development and tests. It enforces
// the same write-once dedup rule as the real ledger: a duplicate
// deterministic identifier is rejected, never overwritten.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]*models.LedgerCertificate
	now     func() time.Time
}

// NewInMemory creates an empty in-memory ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[string]*models.LedgerCertificate),
		now:     time.Now,
	}
}

// Submit records the credential, rejecting duplicate identifiers.
func (l *InMemory) Submit(_ context.Context, req SubmitRequest) (*Receipt, error) {
	certificateID := certid.Derive(req.RollNumber, req.Course, req.IssuerName)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.entries[certificateID]; exists {
		return nil, fmt.Errorf("certificate %s already on ledger: %w", certificateID, ErrDuplicate)
	}

	txRef, err := randomTxRef()
	if err != nil {
		return nil, err
	}
	l.entries[certificateID] = &models.LedgerCertificate{
		CertificateID: certificateID,
		RollNumber:    req.RollNumber,
		HolderName:    req.HolderName,
		Course:        req.Course,
		IssuerName:    req.IssuerName,
		Grade:         req.Grade,
		IssuedAt:      l.now(),
		IssuerAddress: "0x0000000000000000000000000000000000000000",
		Exists:        true,
	}
	return &Receipt{CertificateID: certificateID, TxRef: txRef}, nil
}

// Query returns the entry for an identifier, or ErrNotFound.
func (l *InMemory) Query(_ context.Context, certificateID string) (*models.LedgerCertificate, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if entry, ok := l.entries[certificateID]; ok {
		return entry, nil
	}
	return nil, fmt.Errorf("certificate %s not on ledger: %w", certificateID, ErrNotFound)
}

func randomTxRef() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate tx ref: %w", err)
	}
	return "0x" + hex.EncodeToString(buf), nil
}
