package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"attest/internal/certificate/models"
	"attest/pkg/platform/circuit"
)

// HTTPClient implements Gateway against a ledger bridge service that exposes
// the credential contract over JSON. The bridge owns keys, signing, and the
// chain protocol; this client only speaks its HTTP surface.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuit.Breaker
	logger     *slog.Logger
}

var _ Gateway = (*HTTPClient)(nil)

// HTTPClientOption configures the HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

// WithLogger sets the logger used for circuit state transitions.
func WithLogger(logger *slog.Logger) HTTPClientOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// NewHTTPClient creates a ledger bridge client. The client-level timeout is a
// backstop; per-call contexts carry the effective deadlines.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: circuit.New("ledger"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitRequest struct {
	RollNumber string `json:"roll_number"`
	HolderName string `json:"holder_name"`
	Course     string `json:"course"`
	IssuerName string `json:"issuer_name"`
	Grade      string `json:"grade"`
}

type submitResponse struct {
	CertificateID string `json:"certificate_id"`
	TxRef         string `json:"tx_ref"`
}

type queryResponse struct {
	CertificateID string `json:"certificate_id"`
	RollNumber    string `json:"roll_number"`
	HolderName    string `json:"holder_name"`
	Course        string `json:"course"`
	IssuerName    string `json:"issuer_name"`
	Grade         string `json:"grade"`
	IssuedAt      int64  `json:"issued_at"`
	IssuerAddress string `json:"issuer_address"`
	Exists        bool   `json:"exists"`
}

// Submit writes a credential via the bridge. A 409 from the bridge maps to
// ErrDuplicate; transport failures and timeouts map to ErrUnavailable.
func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	if c.breaker.IsOpen() {
		return nil, fmt.Errorf("ledger circuit open: %w", ErrUnavailable)
	}

	body, err := json.Marshal(submitRequest{
		RollNumber: req.RollNumber,
		HolderName: req.HolderName,
		Course:     req.Course,
		IssuerName: req.IssuerName,
		Grade:      req.Grade,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal submit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/certificates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create submit request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("submit to ledger: %w: %w", ErrUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var out submitResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			c.recordFailure()
			return nil, fmt.Errorf("decode submit response: %w: %w", ErrUnavailable, err)
		}
		c.recordSuccess()
		return &Receipt{CertificateID: out.CertificateID, TxRef: out.TxRef}, nil
	case http.StatusConflict:
		// A dedup rejection is a healthy ledger answer, not an outage.
		c.recordSuccess()
		return nil, fmt.Errorf("ledger rejected duplicate identifier: %w", ErrDuplicate)
	default:
		c.recordFailure()
		return nil, fmt.Errorf("ledger submit returned status %d: %w", resp.StatusCode, ErrUnavailable)
	}
}

// Query fetches the ledger entry for an identifier via the bridge.
func (c *HTTPClient) Query(ctx context.Context, certificateID string) (*models.LedgerCertificate, error) {
	// Queries always go through, even with the circuit open. Verification
	// degrades gracefully on failure, and a successful probe is what closes
	// the circuit again for writes.
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/certificates/"+certificateID, nil)
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("query ledger: %w: %w", ErrUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var out queryResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			c.recordFailure()
			return nil, fmt.Errorf("decode query response: %w: %w", ErrUnavailable, err)
		}
		c.recordSuccess()
		return &models.LedgerCertificate{
			CertificateID: out.CertificateID,
			RollNumber:    out.RollNumber,
			HolderName:    out.HolderName,
			Course:        out.Course,
			IssuerName:    out.IssuerName,
			Grade:         out.Grade,
			IssuedAt:      time.Unix(out.IssuedAt, 0).UTC(),
			IssuerAddress: out.IssuerAddress,
			Exists:        out.Exists,
		}, nil
	case http.StatusNotFound:
		c.recordSuccess()
		return nil, fmt.Errorf("certificate %s not on ledger: %w", certificateID, ErrNotFound)
	default:
		c.recordFailure()
		return nil, fmt.Errorf("ledger query returned status %d: %w", resp.StatusCode, ErrUnavailable)
	}
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

func (c *HTTPClient) recordFailure() {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.Warn("ledger circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *HTTPClient) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("ledger circuit closed", "breaker", c.breaker.Name())
	}
}

// drainAndClose empties the body so the underlying connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body) //nolint:errcheck // best effort
	_ = body.Close()                 //nolint:errcheck
}

// IsUnavailable reports whether the error represents a reachability or
// timeout failure rather than a ledger decision.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
