package holder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"attest/internal/identity/models"
	"attest/internal/sentinel"
	id "attest/pkg/domain"
)

// ErrNotFound is returned when a holder is not found.
var ErrNotFound = sentinel.ErrNotFound

// InMemory stores holders in memory for tests/dev.
type InMemory struct {
	mu      sync.RWMutex
	holders map[string]*models.Holder
	rollIdx map[string]string // issuerID + "/" + rollNumber -> holder key
}

// NewInMemory creates an in-memory holder store.
func NewInMemory() *InMemory {
	return &InMemory{
		holders: make(map[string]*models.Holder),
		rollIdx: make(map[string]string),
	}
}

func rollKey(issuerID id.IssuerID, roll string) string {
	return issuerID.String() + "/" + roll
}

// Create atomically creates the holder if the (issuer, roll number) pair is unused.
func (s *InMemory) Create(_ context.Context, holder *models.Holder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := rollKey(holder.IssuerID, holder.RollNumber)
	if _, exists := s.rollIdx[idx]; exists {
		return fmt.Errorf("roll number must be unique within issuer: %w", sentinel.ErrAlreadyUsed)
	}
	key := holder.ID.String()
	s.holders[key] = holder
	s.rollIdx[idx] = key
	return nil
}

// FindByID retrieves a holder by its UUID.
func (s *InMemory) FindByID(_ context.Context, holderID id.HolderID) (*models.Holder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if holder, ok := s.holders[holderID.String()]; ok {
		return holder, nil
	}
	return nil, fmt.Errorf("holder not found: %w", ErrNotFound)
}

// FindByEmailAndRoll retrieves a holder by the (email, roll number) login pair.
// Email matching is case-insensitive; both fields must match the same row.
func (s *InMemory) FindByEmailAndRoll(_ context.Context, email, rollNumber string) (*models.Holder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, holder := range s.holders {
		if strings.EqualFold(holder.Email, email) && holder.RollNumber == rollNumber {
			return holder, nil
		}
	}
	return nil, fmt.Errorf("holder not found: %w", ErrNotFound)
}

// ListByIssuer returns the issuer's holders ordered by name.
func (s *InMemory) ListByIssuer(_ context.Context, issuerID id.IssuerID) ([]*models.Holder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	holders := make([]*models.Holder, 0)
	for _, holder := range s.holders {
		if holder.IssuerID == issuerID {
			holders = append(holders, holder)
		}
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i].Name < holders[j].Name })
	return holders, nil
}
