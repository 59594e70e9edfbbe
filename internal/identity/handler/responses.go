package handler

import (
	"time"

	"attest/internal/identity/models"
)

// SessionResponse is returned on login and session introspection.
type SessionResponse struct {
	Token             string    `json:"token,omitempty"`
	Kind              string    `json:"kind"`
	PrincipalID       string    `json:"principal_id"`
	DisplayName       string    `json:"display_name"`
	DeviceDisplayName string    `json:"device_display_name,omitempty"`
	ExpiresAt         time.Time `json:"expires_at,omitzero"`
}

// IssuerResponse is the public view of an issuer account.
type IssuerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// HolderResponse is the public view of an enrolled holder.
type HolderResponse struct {
	ID         string    `json:"id"`
	RollNumber string    `json:"roll_number"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// HolderListResponse wraps the issuer's holder roster.
type HolderListResponse struct {
	Holders []HolderResponse `json:"holders"`
}

func toIssuerResponse(issuer *models.Issuer) IssuerResponse {
	return IssuerResponse{
		ID:        issuer.ID.String(),
		Name:      issuer.Name,
		Email:     issuer.Email,
		Verified:  issuer.Verified,
		CreatedAt: issuer.CreatedAt,
	}
}

func toHolderResponse(holder *models.Holder) HolderResponse {
	return HolderResponse{
		ID:         holder.ID.String(),
		RollNumber: holder.RollNumber,
		Name:       holder.Name,
		Email:      holder.Email,
		Status:     string(holder.Status),
		CreatedAt:  holder.CreatedAt,
	}
}
