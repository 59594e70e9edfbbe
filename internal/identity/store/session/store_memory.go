package session

import (
	"context"
	"fmt"
	"sync"

	"attest/internal/identity/models"
	"attest/internal/sentinel"
)

// ErrNotFound is returned when a session is not found.
var ErrNotFound = sentinel.ErrNotFound

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound (wrapped) when the requested session does not exist
// - Delete is idempotent and returns nil for unknown tokens
// - Return wrapped errors with context for infrastructure failures

// InMemory stores sessions in memory for tests/dev, keyed by token.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewInMemory constructs an empty in-memory session store.
func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[string]*models.Session)}
}

// Create stores a new session row.
func (s *InMemory) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

// FindByToken retrieves a session by its opaque token.
func (s *InMemory) FindByToken(_ context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	return nil, fmt.Errorf("session not found: %w", ErrNotFound)
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *InMemory) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
