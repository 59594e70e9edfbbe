package handler

// RegisterIssuerRequest is the payload for issuer self-registration.
type RegisterIssuerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IssuerLoginRequest is the payload for issuer login.
type IssuerLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HolderLoginRequest is the payload for holder login. Both fields must match
// the same enrolled holder.
type HolderLoginRequest struct {
	Email      string `json:"email"`
	RollNumber string `json:"roll_number"`
}

// CreateHolderRequest is the payload for enrolling a holder.
type CreateHolderRequest struct {
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Status     string `json:"status,omitempty"`
}
