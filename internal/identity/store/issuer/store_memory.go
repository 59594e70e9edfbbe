package issuer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"attest/internal/identity/models"
	"attest/internal/sentinel"
	id "attest/pkg/domain"
)

// ErrNotFound is returned when an issuer is not found.
var ErrNotFound = sentinel.ErrNotFound

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound (wrapped) when the requested entity does not exist
// - Return sentinel.ErrAlreadyUsed (wrapped) on uniqueness violations
// - Return wrapped errors with context for infrastructure failures

// InMemory stores issuers in memory for tests/dev.
type InMemory struct {
	mu       sync.RWMutex
	issuers  map[string]*models.Issuer
	emailIdx map[string]string
}

// NewInMemory creates an in-memory issuer store.
func NewInMemory() *InMemory {
	return &InMemory{
		issuers:  make(map[string]*models.Issuer),
		emailIdx: make(map[string]string),
	}
}

// Create atomically creates the issuer if the email is not already taken (case-insensitive).
func (s *InMemory) Create(_ context.Context, issuer *models.Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(issuer.Email)
	if _, exists := s.emailIdx[lower]; exists {
		return fmt.Errorf("issuer email must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	key := issuer.ID.String()
	s.issuers[key] = issuer
	s.emailIdx[lower] = key
	return nil
}

// FindByID retrieves an issuer by its UUID.
func (s *InMemory) FindByID(_ context.Context, issuerID id.IssuerID) (*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if issuer, ok := s.issuers[issuerID.String()]; ok {
		return issuer, nil
	}
	return nil, fmt.Errorf("issuer not found: %w", ErrNotFound)
}

// FindByEmail retrieves an issuer by contact email (case-insensitive).
func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.emailIdx[strings.ToLower(email)]; ok {
		return s.issuers[key], nil
	}
	return nil, fmt.Errorf("issuer not found: %w", ErrNotFound)
}
