package issuer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"attest/internal/identity/models"
	"attest/internal/sentinel"
	id "attest/pkg/domain"
)

// PostgresStore persists issuers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed issuer store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the issuer; the unique index on lower(email) enforces
// one account per contact address.
func (s *PostgresStore) Create(ctx context.Context, issuer *models.Issuer) error {
	if issuer == nil {
		return fmt.Errorf("issuer is required")
	}
	query := `
		INSERT INTO issuers (id, name, email, password_hash, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(issuer.ID),
		issuer.Name,
		issuer.Email,
		issuer.PasswordHash,
		issuer.Verified,
		issuer.CreatedAt,
		issuer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("issuer email must be unique: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create issuer: %w", err)
	}
	return nil
}

// FindByID retrieves an issuer by its UUID.
func (s *PostgresStore) FindByID(ctx context.Context, issuerID id.IssuerID) (*models.Issuer, error) {
	query := `
		SELECT id, name, email, password_hash, verified, created_at, updated_at
		FROM issuers
		WHERE id = $1
	`
	issuer, err := scanIssuer(s.db.QueryRowContext(ctx, query, uuid.UUID(issuerID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("issuer not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find issuer by id: %w", err)
	}
	return issuer, nil
}

// FindByEmail retrieves an issuer by contact email (case-insensitive).
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Issuer, error) {
	query := `
		SELECT id, name, email, password_hash, verified, created_at, updated_at
		FROM issuers
		WHERE lower(email) = lower($1)
	`
	issuer, err := scanIssuer(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("issuer not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find issuer by email: %w", err)
	}
	return issuer, nil
}

type issuerRow interface {
	Scan(dest ...any) error
}

func scanIssuer(row issuerRow) (*models.Issuer, error) {
	var issuer models.Issuer
	var issuerID uuid.UUID
	if err := row.Scan(
		&issuerID,
		&issuer.Name,
		&issuer.Email,
		&issuer.PasswordHash,
		&issuer.Verified,
		&issuer.CreatedAt,
		&issuer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	issuer.ID = id.IssuerID(issuerID)
	return &issuer, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
