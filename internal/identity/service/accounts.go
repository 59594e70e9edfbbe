package service

import (
	"context"
	"errors"
	"strings"

	"attest/internal/identity/models"
	"attest/internal/sentinel"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/secrets"
)

// RegisterIssuerParams carries the fields for a new issuer account.
type RegisterIssuerParams struct {
	Name     string
	Email    string
	Password string
}

// RegisterIssuer creates an issuer account with a hashed credential.
// The contact email is unique across issuers.
func (s *Service) RegisterIssuer(ctx context.Context, params RegisterIssuerParams) (*models.Issuer, error) {
	name := strings.TrimSpace(params.Name)
	email := strings.TrimSpace(params.Email)
	if name == "" || email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name and email are required")
	}

	hash, err := secrets.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	issuer := &models.Issuer{
		ID:           id.NewIssuerID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.issuers.Create(ctx, issuer); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "an issuer with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create issuer")
	}

	s.logAudit(ctx, "issuer_registered", "issuer_id", issuer.ID.String())
	if s.metrics != nil {
		s.metrics.IssuersRegistered.Inc()
	}
	return issuer, nil
}

// CreateHolderParams carries the fields for a new holder account.
type CreateHolderParams struct {
	RollNumber string
	Name       string
	Email      string
	Status     models.HolderStatus
}

// CreateHolder enrolls a holder under the given issuer. The roll number is
// unique within the issuer's scope; status defaults to active.
func (s *Service) CreateHolder(ctx context.Context, issuerID id.IssuerID, params CreateHolderParams) (*models.Holder, error) {
	roll := strings.TrimSpace(params.RollNumber)
	name := strings.TrimSpace(params.Name)
	if roll == "" || name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "roll number and name are required")
	}
	status := params.Status
	if status == "" {
		status = models.HolderActive
	}
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown holder status")
	}

	if _, err := s.issuers.FindByID(ctx, issuerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "issuer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up issuer")
	}

	now := s.now()
	holder := &models.Holder{
		ID:         id.NewHolderID(),
		IssuerID:   issuerID,
		RollNumber: roll,
		Name:       name,
		Email:      strings.TrimSpace(params.Email),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.holders.Create(ctx, holder); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "a holder with this roll number already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create holder")
	}

	s.logAudit(ctx, "holder_created",
		"issuer_id", issuerID.String(),
		"holder_id", holder.ID.String(),
	)
	if s.metrics != nil {
		s.metrics.HoldersCreated.Inc()
	}
	return holder, nil
}

// ListHolders returns the issuer's enrolled holders.
func (s *Service) ListHolders(ctx context.Context, issuerID id.IssuerID) ([]*models.Holder, error) {
	holders, err := s.holders.ListByIssuer(ctx, issuerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list holders")
	}
	return holders, nil
}
