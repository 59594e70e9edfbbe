// Package handler exposes issuance and verification over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attest/internal/certificate/models"
	"attest/internal/certificate/service"
	identitymodels "attest/internal/identity/models"
	"attest/internal/platform/middleware/auth"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/httputil"
	"attest/pkg/requestcontext"
)

// Service defines the certificate operations the handler needs.
type Service interface {
	Issue(ctx context.Context, issuerID id.IssuerID, req service.IssueRequest) (*models.IssuanceResult, error)
	RetryPersist(ctx context.Context, pending *models.CertificateRecord) (*models.IssuanceResult, error)
	Verify(ctx context.Context, claimedID string) (*models.VerificationResult, error)
	ListByIssuer(ctx context.Context, issuerID id.IssuerID) ([]*models.CertificateRecord, error)
	ListByHolder(ctx context.Context, holderID id.HolderID) ([]*models.CertificateRecord, error)
}

// SessionValidator gates the issuer and holder routes.
type SessionValidator = auth.SessionValidator

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public verification route and the session-protected
// issuance routes.
func (h *Handler) Register(r chi.Router, validator SessionValidator) {
	r.Get("/verify/{certificateID}", h.HandleVerify)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(validator))
		r.Post("/certificates", h.HandleIssue)
		r.Post("/certificates/reconcile", h.HandleReconcile)
		r.Get("/certificates", h.HandleListIssued)
		r.Get("/holders/certificates", h.HandleListHeld)
	})
}

// HandleIssue issues a certificate for one of the issuer's holders.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	issuer, ok := issuerPrincipal(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "issuer session required"))
		return
	}

	req, err := httputil.Decode[IssueCertificateRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	holderID, err := id.ParseHolderID(req.HolderID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid holder id"))
		return
	}

	result, err := h.service.Issue(ctx, issuer.ID, service.IssueRequest{
		HolderID: holderID,
		Course:   req.Course,
		Grade:    req.Grade,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "issue certificate failed", "error", err, "request_id", requestID)
		writeIssuanceError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &IssueCertificateResponse{
		CertificateID: result.CertificateID,
		LedgerTxRef:   result.LedgerTxRef,
	})
}

// HandleReconcile retries the mirror write of a partially failed issuance.
// The ledger is never written here.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	issuer, ok := issuerPrincipal(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "issuer session required"))
		return
	}

	req, err := httputil.Decode[ReconcileRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	pending, err := req.toPendingRecord(issuer.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.RetryPersist(ctx, pending)
	if err != nil {
		h.logger.ErrorContext(ctx, "reconcile certificate failed", "error", err, "request_id", requestID)
		writeIssuanceError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &IssueCertificateResponse{
		CertificateID: result.CertificateID,
		LedgerTxRef:   result.LedgerTxRef,
	})
}

// HandleListIssued returns the authenticated issuer's certificates.
func (h *Handler) HandleListIssued(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issuer, ok := issuerPrincipal(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "issuer session required"))
		return
	}

	records, err := h.service.ListByIssuer(ctx, issuer.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list certificates failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	writeRecordList(w, records)
}

// HandleListHeld returns the authenticated holder's certificates.
func (h *Handler) HandleListHeld(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := auth.PrincipalFrom(ctx)
	if !ok || principal.Kind != id.KindHolder || principal.Holder == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "holder session required"))
		return
	}

	records, err := h.service.ListByHolder(ctx, principal.Holder.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list held certificates failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	writeRecordList(w, records)
}

// HandleVerify resolves the trust state of a claimed identifier. Public, no
// session required.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimed := chi.URLParam(r, "certificateID")
	result, err := h.service.Verify(ctx, claimed)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Found && result.Verdict != models.VerdictMalformed {
		status = http.StatusNotFound
	}
	httputil.WriteJSON(w, status, toVerificationResponse(result))
}

// writeIssuanceError surfaces the reconciliation-pending state: a partial
// failure response carries the confirmed tx ref and the pending record so
// the caller can retry the mirror write.
func writeIssuanceError(w http.ResponseWriter, err error) {
	var partial *service.PartialFailure
	if errors.As(err, &partial) {
		httputil.WriteJSON(w, http.StatusBadGateway, &PartialFailureResponse{
			Error:         string(dErrors.CodeRecordPersistFailed),
			CertificateID: partial.Pending.CertificateID,
			LedgerTxRef:   partial.Pending.LedgerTxRef,
			Pending:       toPendingResponse(partial.Pending),
		})
		return
	}
	httputil.WriteError(w, err)
}

func issuerPrincipal(r *http.Request) (*identitymodels.Issuer, bool) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok || principal.Kind != id.KindIssuer || principal.Issuer == nil {
		return nil, false
	}
	return principal.Issuer, true
}
