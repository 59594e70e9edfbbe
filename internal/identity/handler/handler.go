// Package handler exposes the identity module over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attest/internal/identity/models"
	"attest/internal/identity/service"
	"attest/internal/platform/middleware/auth"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/httputil"
	"attest/pkg/requestcontext"
)

// Service defines the identity operations the handler needs.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	RegisterIssuer(ctx context.Context, params service.RegisterIssuerParams) (*models.Issuer, error)
	AuthenticateIssuer(ctx context.Context, email, password, userAgent string) (*models.Session, error)
	AuthenticateHolder(ctx context.Context, email, rollNumber, userAgent string) (*models.Session, error)
	Validate(ctx context.Context, token string) (*models.Principal, error)
	Revoke(ctx context.Context, token string) error
	CreateHolder(ctx context.Context, issuerID id.IssuerID, params service.CreateHolderParams) (*models.Holder, error)
	ListHolders(ctx context.Context, issuerID id.IssuerID) ([]*models.Holder, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public auth routes and the session-protected account
// routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/issuers/register", h.HandleRegisterIssuer)
	r.Post("/auth/issuers/login", h.HandleIssuerLogin)
	r.Post("/auth/holders/login", h.HandleHolderLogin)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(h.service))
		r.Post("/auth/logout", h.HandleLogout)
		r.Get("/auth/session", h.HandleSession)
		r.Post("/holders", h.HandleCreateHolder)
		r.Get("/holders", h.HandleListHolders)
	})
}

// HandleRegisterIssuer creates an issuer account.
func (h *Handler) HandleRegisterIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := httputil.Decode[RegisterIssuerRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issuer, err := h.service.RegisterIssuer(ctx, service.RegisterIssuerParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "register issuer failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	resp := toIssuerResponse(issuer)
	httputil.WriteJSON(w, http.StatusCreated, &resp)
}

// HandleIssuerLogin opens a session for an issuer.
func (h *Handler) HandleIssuerLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[IssuerLoginRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.AuthenticateIssuer(ctx, req.Email, req.Password, r.UserAgent())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeSession(w, session)
}

// HandleHolderLogin opens a session for a holder using the email and roll
// number pair.
func (h *Handler) HandleHolderLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[HolderLoginRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.AuthenticateHolder(ctx, req.Email, req.RollNumber, r.UserAgent())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeSession(w, session)
}

// HandleLogout revokes the presented session token.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.Header.Get(auth.TokenHeader)
	if err := h.service.Revoke(ctx, token); err != nil {
		h.logger.ErrorContext(ctx, "logout failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession returns the authenticated principal behind the token.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session token required"))
		return
	}

	resp := SessionResponse{
		Kind:        string(principal.Kind),
		PrincipalID: principal.ID().String(),
	}
	switch principal.Kind {
	case id.KindIssuer:
		resp.DisplayName = principal.Issuer.Name
	case id.KindHolder:
		resp.DisplayName = principal.Holder.Name
	}
	httputil.WriteJSON(w, http.StatusOK, &resp)
}

// HandleCreateHolder enrolls a holder under the authenticated issuer.
func (h *Handler) HandleCreateHolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	issuer, ok := issuerPrincipal(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "issuer session required"))
		return
	}

	req, err := httputil.Decode[CreateHolderRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	holder, err := h.service.CreateHolder(ctx, issuer.ID, service.CreateHolderParams{
		RollNumber: req.RollNumber,
		Name:       req.Name,
		Email:      req.Email,
		Status:     models.HolderStatus(req.Status),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "create holder failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	resp := toHolderResponse(holder)
	httputil.WriteJSON(w, http.StatusCreated, &resp)
}

// HandleListHolders returns the authenticated issuer's roster.
func (h *Handler) HandleListHolders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issuer, ok := issuerPrincipal(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "issuer session required"))
		return
	}

	holders, err := h.service.ListHolders(ctx, issuer.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list holders failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}

	resp := HolderListResponse{Holders: make([]HolderResponse, 0, len(holders))}
	for _, holder := range holders {
		resp.Holders = append(resp.Holders, toHolderResponse(holder))
	}
	httputil.WriteJSON(w, http.StatusOK, &resp)
}

func writeSession(w http.ResponseWriter, session *models.Session) {
	httputil.WriteJSON(w, http.StatusOK, &SessionResponse{
		Token:             session.Token,
		Kind:              string(session.Kind),
		PrincipalID:       session.PrincipalID.String(),
		DeviceDisplayName: session.DeviceDisplayName,
		ExpiresAt:         session.ExpiresAt,
	})
}

// issuerPrincipal extracts the issuer behind the request, or reports false
// for holder sessions.
func issuerPrincipal(r *http.Request) (*models.Issuer, bool) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok || principal.Kind != id.KindIssuer || principal.Issuer == nil {
		return nil, false
	}
	return principal.Issuer, true
}
