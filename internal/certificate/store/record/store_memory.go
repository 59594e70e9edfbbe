package record

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"attest/internal/certificate/models"
	"attest/internal/sentinel"
	id "attest/pkg/domain"
)

// ErrNotFound is returned when no record exists for a certificate identifier.
var ErrNotFound = sentinel.ErrNotFound

// InMemory stores certificate records in memory for tests/dev.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*models.CertificateRecord
}

// NewInMemory creates an in-memory record store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*models.CertificateRecord)}
}

// Insert creates the record if the certificate identifier is unused.
func (s *InMemory) Insert(_ context.Context, record *models.CertificateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.CertificateID]; exists {
		return fmt.Errorf("certificate %s already recorded: %w", record.CertificateID, sentinel.ErrAlreadyUsed)
	}
	copied := *record
	s.records[record.CertificateID] = &copied
	return nil
}

// FindByCertificateID retrieves a record by its identifier.
func (s *InMemory) FindByCertificateID(_ context.Context, certificateID string) (*models.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[certificateID]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, fmt.Errorf("certificate record not found: %w", ErrNotFound)
}

// ListByIssuer returns the issuer's records, newest first.
func (s *InMemory) ListByIssuer(_ context.Context, issuerID id.IssuerID) ([]*models.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*models.CertificateRecord, 0)
	for _, record := range s.records {
		if record.IssuerID == issuerID {
			copied := *record
			records = append(records, &copied)
		}
	}
	sortNewestFirst(records)
	return records, nil
}

// ListByHolder returns the holder's records, newest first.
func (s *InMemory) ListByHolder(_ context.Context, holderID id.HolderID) ([]*models.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*models.CertificateRecord, 0)
	for _, record := range s.records {
		if record.HolderID == holderID {
			copied := *record
			records = append(records, &copied)
		}
	}
	sortNewestFirst(records)
	return records, nil
}

func sortNewestFirst(records []*models.CertificateRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].IssuedAt.Equal(records[j].IssuedAt) {
			return records[i].CertificateID < records[j].CertificateID
		}
		return records[i].IssuedAt.After(records[j].IssuedAt)
	})
}
