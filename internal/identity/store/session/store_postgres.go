package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"attest/internal/identity/models"
	id "attest/pkg/domain"
)

// PostgresStore persists sessions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create stores a new session row.
func (s *PostgresStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	query := `
		INSERT INTO sessions (token, principal_id, principal_kind, device_display_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.Token,
		session.PrincipalID,
		string(session.Kind),
		session.DeviceDisplayName,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindByToken retrieves a session by its opaque token.
func (s *PostgresStore) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT token, principal_id, principal_kind, device_display_name, created_at, expires_at
		FROM sessions
		WHERE token = $1
	`
	var session models.Session
	var principalID uuid.UUID
	var kind string
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&session.Token,
		&principalID,
		&kind,
		&session.DeviceDisplayName,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find session by token: %w", err)
	}
	session.PrincipalID = principalID
	session.Kind = id.PrincipalKind(kind)
	return &session, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *PostgresStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
