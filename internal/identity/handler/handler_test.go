package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attest/internal/identity/service"
	holderstore "attest/internal/identity/store/holder"
	issuerstore "attest/internal/identity/store/issuer"
	sessionstore "attest/internal/identity/store/session"
	"attest/internal/platform/middleware/auth"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	svc := service.New(issuerstore.NewInMemory(), holderstore.NewInMemory(), sessionstore.NewInMemory())
	h := New(svc, slog.Default())
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func registerAndLogin(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/auth/issuers/register", "", RegisterIssuerRequest{
		Name:     "Test University",
		Email:    "registrar@test.edu",
		Password: "correct horse battery staple",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/auth/issuers/login", "", IssuerLoginRequest{
		Email:    "registrar@test.edu",
		Password: "correct horse battery staple",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeBody[SessionResponse](t, rec)
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestIssuerRegisterLoginSession(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r)

	rec := doJSON(t, r, http.MethodGet, "/auth/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeBody[SessionResponse](t, rec)
	assert.Equal(t, "issuer", session.Kind)
	assert.Equal(t, "Test University", session.DisplayName)
}

func TestIssuerLoginRejectsBadCredentials(t *testing.T) {
	r := newTestRouter(t)
	registerAndLogin(t, r)

	rec := doJSON(t, r, http.MethodPost, "/auth/issuers/login", "", IssuerLoginRequest{
		Email:    "registrar@test.edu",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "invalid_credentials", body["error"])
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/auth/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/holders", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHolderEnrollmentAndLogin(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r)

	rec := doJSON(t, r, http.MethodPost, "/holders", token, CreateHolderRequest{
		RollNumber: "CS-2024-117",
		Name:       "Asha Verma",
		Email:      "asha@test.edu",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	holder := decodeBody[HolderResponse](t, rec)
	assert.Equal(t, "active", holder.Status)

	rec = doJSON(t, r, http.MethodGet, "/holders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[HolderListResponse](t, rec)
	require.Len(t, list.Holders, 1)
	assert.Equal(t, "CS-2024-117", list.Holders[0].RollNumber)

	rec = doJSON(t, r, http.MethodPost, "/auth/holders/login", "", HolderLoginRequest{
		Email:      "asha@test.edu",
		RollNumber: "CS-2024-117",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeBody[SessionResponse](t, rec)
	assert.Equal(t, "holder", session.Kind)

	// Holder sessions cannot manage the roster.
	rec = doJSON(t, r, http.MethodGet, "/holders", session.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r)

	rec := doJSON(t, r, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRejectsMalformedBody(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/issuers/register", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
