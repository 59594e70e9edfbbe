package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"attest/internal/certificate/models"
	"attest/internal/sentinel"
	id "attest/pkg/domain"
)

// PostgresStore persists certificate records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `certificate_id, issuer_id, holder_id, roll_number, holder_name, course, grade, issuer_name, ledger_tx_ref, ledger_ok, issued_at`

// Insert creates the record; the primary key on certificate_id enforces that
// an identifier maps to a single record.
func (s *PostgresStore) Insert(ctx context.Context, record *models.CertificateRecord) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	query := `
		INSERT INTO certificate_records (certificate_id, issuer_id, holder_id, roll_number, holder_name, course, grade, issuer_name, ledger_tx_ref, ledger_ok, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.CertificateID,
		uuid.UUID(record.IssuerID),
		uuid.UUID(record.HolderID),
		record.RollNumber,
		record.HolderName,
		record.Course,
		record.Grade,
		record.IssuerName,
		record.LedgerTxRef,
		record.LedgerOK,
		record.IssuedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("certificate %s already recorded: %w", record.CertificateID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert certificate record: %w", err)
	}
	return nil
}

// FindByCertificateID retrieves a record by its identifier.
func (s *PostgresStore) FindByCertificateID(ctx context.Context, certificateID string) (*models.CertificateRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM certificate_records WHERE certificate_id = $1`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, certificateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("certificate record not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find certificate record: %w", err)
	}
	return record, nil
}

// ListByIssuer returns the issuer's records, newest first.
func (s *PostgresStore) ListByIssuer(ctx context.Context, issuerID id.IssuerID) ([]*models.CertificateRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM certificate_records WHERE issuer_id = $1 ORDER BY issued_at DESC, certificate_id`
	return s.list(ctx, query, uuid.UUID(issuerID))
}

// ListByHolder returns the holder's records, newest first.
func (s *PostgresStore) ListByHolder(ctx context.Context, holderID id.HolderID) ([]*models.CertificateRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM certificate_records WHERE holder_id = $1 ORDER BY issued_at DESC, certificate_id`
	return s.list(ctx, query, uuid.UUID(holderID))
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*models.CertificateRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list certificate records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.CertificateRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list certificate records: %w", err)
	}
	return records, nil
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (*models.CertificateRecord, error) {
	var record models.CertificateRecord
	var issuerID, holderID uuid.UUID
	if err := row.Scan(
		&record.CertificateID,
		&issuerID,
		&holderID,
		&record.RollNumber,
		&record.HolderName,
		&record.Course,
		&record.Grade,
		&record.IssuerName,
		&record.LedgerTxRef,
		&record.LedgerOK,
		&record.IssuedAt,
	); err != nil {
		return nil, err
	}
	record.IssuerID = id.IssuerID(issuerID)
	record.HolderID = id.HolderID(holderID)
	return &record, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
