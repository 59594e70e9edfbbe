// Package auth provides session-token middleware for authenticated routes.
package auth

import (
	"context"
	"net/http"
	"strings"

	"attest/internal/identity/models"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/httputil"
)

// TokenHeader carries the opaque session token.
const TokenHeader = "X-Session-Token"

// SessionValidator resolves a session token to its principal. Validation
// fails closed: any failure yields an error, never an anonymous principal.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*models.Principal, error)
}

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFrom extracts the authenticated principal from the context.
func PrincipalFrom(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	return p, ok
}

// RequireSession rejects requests without a valid session token and stores
// the resolved principal in the request context.
func RequireSession(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session token required"))
				return
			}
			principal, err := validator.Validate(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the session token from the X-Session-Token header, with
// "Bearer" Authorization accepted as a fallback for CLI clients.
func extractToken(r *http.Request) string {
	if token := r.Header.Get(TokenHeader); token != "" {
		return token
	}
	authz := r.Header.Get("Authorization")
	if rest, ok := strings.CutPrefix(authz, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}

// WithPrincipal returns a context carrying the principal, for tests.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
