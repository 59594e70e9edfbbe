package holder

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

// PostgresStore persists holders in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed holder store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const holderColumns = `id, issuer_id, roll_number, name, email, status, created_at, updated_at`

// Create inserts the holder; the unique index on (issuer_id, roll_number)
// enforces per-issuer roll uniqueness.
func (s *PostgresStore) Create(ctx context.Context, holder *models.Holder) error {
	if holder == nil {
		return fmt.Errorf("holder is required")
	}
	query := `
		INSERT INTO holders (id, issuer_id, roll_number, name, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(holder.ID),
		uuid.UUID(holder.IssuerID),
		holder.RollNumber,
		holder.Name,
		holder.Email,
		string(holder.Status),
		holder.CreatedAt,
		holder.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("roll number must be unique within issuer: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create holder: %w", err)
	}
	return nil
}

// FindByID retrieves a holder by its UUID.
func (s *PostgresStore) FindByID(ctx context.Context, holderID id.HolderID) (*models.Holder, error) {
	query := `SELECT ` + holderColumns + ` FROM holders WHERE id = $1`
	holder, err := scanHolder(s.db.QueryRowContext(ctx, query, uuid.UUID(holderID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("holder not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find holder by id: %w", err)
	}
	return holder, nil
}

// FindByEmailAndRoll retrieves a holder by the (email, roll number) login pair.
func (s *PostgresStore) FindByEmailAndRoll(ctx context.Context, email, rollNumber string) (*models.Holder, error) {
	query := `SELECT ` + holderColumns + ` FROM holders WHERE lower(email) = lower($1) AND roll_number = $2`
	holder, err := scanHolder(s.db.QueryRowContext(ctx, query, email, rollNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("holder not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find holder by email and roll: %w", err)
	}
	return holder, nil
}

// ListByIssuer returns the issuer's holders ordered by name.
func (s *PostgresStore) ListByIssuer(ctx context.Context, issuerID id.IssuerID) ([]*models.Holder, error) {
	query := `SELECT ` + holderColumns + ` FROM holders WHERE issuer_id = $1 ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(issuerID))
	if err != nil {
		return nil, fmt.Errorf("list holders: %w", err)
	}
	defer rows.Close()

	holders := make([]*models.Holder, 0)
	for rows.Next() {
		holder, err := scanHolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan holder: %w", err)
		}
		holders = append(holders, holder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list holders: %w", err)
	}
	return holders, nil
}

type holderRow interface {
	Scan(dest ...any) error
}

func scanHolder(row holderRow) (*models.Holder, error) {
	var holder models.Holder
	var holderID, issuerID uuid.UUID
	var status string
	var email sql.NullString
	if err := row.Scan(
		&holderID,
		&issuerID,
		&holder.RollNumber,
		&holder.Name,
		&email,
		&status,
		&holder.CreatedAt,
		&holder.UpdatedAt,
	); err != nil {
		return nil, err
	}
	holder.ID = id.HolderID(holderID)
	holder.IssuerID = id.IssuerID(issuerID)
	holder.Email = email.String
	holder.Status = models.HolderStatus(status)
	return &holder, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
