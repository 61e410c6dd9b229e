package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	x402gate "github.com/payrail/x402gate"
)

// AuthorizationProvider returns an Authorization header value for a request
// to the facilitator. Useful for short-lived tokens that must be minted per
// request, such as CDP JWTs.
type AuthorizationProvider func(method, path string) (string, error)

// Client is an HTTP facilitator client speaking the x402 facilitator API:
// POST /verify, POST /settle, GET /supported.
//
// Network-level failures and facilitator 5xx responses wrap
// x402gate.ErrFacilitatorUnavailable so callers can distinguish "the
// facilitator could not answer" from a negative verification.
type Client struct {
	baseURL    string
	basePath   string
	httpClient *http.Client
	timeouts   x402gate.Timeouts
	auth       string
	authFunc   AuthorizationProvider
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeouts replaces the per-operation timeouts.
func WithTimeouts(t x402gate.Timeouts) Option {
	return func(c *Client) { c.timeouts = t }
}

// WithAuthorization sets a static Authorization header value,
// e.g. "Bearer api-key".
func WithAuthorization(value string) Option {
	return func(c *Client) { c.auth = value }
}

// WithAuthorizationProvider sets a per-request Authorization source.
// Takes precedence over WithAuthorization.
func WithAuthorizationProvider(p AuthorizationProvider) Option {
	return func(c *Client) { c.authFunc = p }
}

// WithLogger replaces the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a facilitator client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		timeouts:   x402gate.DefaultTimeouts,
		logger:     slog.Default(),
	}
	if u, err := url.Parse(c.baseURL); err == nil {
		c.basePath = u.Path
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// facilitatorRequest is the payload sent to /verify and /settle.
type facilitatorRequest struct {
	X402Version         int                         `json:"x402Version"`
	PaymentPayload      x402gate.PaymentPayload     `json:"paymentPayload"`
	PaymentRequirements x402gate.PaymentRequirement `json:"paymentRequirements"`
}

// Verify checks a payment authorization without executing the transaction.
func (c *Client) Verify(ctx context.Context, payment x402gate.PaymentPayload, requirement x402gate.PaymentRequirement) (*VerifyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.VerifyTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/verify", facilitatorRequest{
		X402Version:         1,
		PaymentPayload:      payment,
		PaymentRequirements: requirement,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: verify status %d", x402gate.ErrFacilitatorUnavailable, resp.StatusCode)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("facilitator rejected verify request", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: status %d", x402gate.ErrVerificationFailed, resp.StatusCode)
	}

	var verifyResp VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}
	return &verifyResp, nil
}

// Settle executes a verified payment on the blockchain. Settlement is never
// retried here or by callers; a duplicate settle risks a double charge.
func (c *Client) Settle(ctx context.Context, payment x402gate.PaymentPayload, requirement x402gate.PaymentRequirement) (*x402gate.SettlementResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.SettleTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/settle", facilitatorRequest{
		X402Version:         1,
		PaymentPayload:      payment,
		PaymentRequirements: requirement,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("facilitator rejected settle request", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: status %d", x402gate.ErrSettlementFailed, resp.StatusCode)
	}

	var settlementResp x402gate.SettlementResponse
	if err := json.NewDecoder(resp.Body).Decode(&settlementResp); err != nil {
		return nil, fmt.Errorf("failed to decode settlement response: %w", err)
	}
	return &settlementResp, nil
}

// Supported queries the facilitator for supported payment types.
func (c *Client) Supported(ctx context.Context) (*SupportedResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.VerifyTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/supported", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.authorize(httpReq, http.MethodGet, "/supported"); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402gate.ErrFacilitatorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supported endpoint failed: status %d", resp.StatusCode)
	}

	var supportedResp SupportedResponse
	if err := json.NewDecoder(resp.Body).Decode(&supportedResp); err != nil {
		return nil, fmt.Errorf("failed to decode supported response: %w", err)
	}
	return &supportedResp, nil
}

// EnrichRequirements fetches supported payment types from the facilitator and
// merges their extra data (like feePayer for SVM chains) into the provided
// requirements. User-specified extras take precedence; on failure the
// original requirements are returned unchanged alongside the error.
func (c *Client) EnrichRequirements(ctx context.Context, requirements []x402gate.PaymentRequirement) ([]x402gate.PaymentRequirement, error) {
	supported, err := c.Supported(ctx)
	if err != nil {
		return requirements, fmt.Errorf("failed to fetch supported payment types: %w", err)
	}

	supportedMap := make(map[string]SupportedKind)
	for _, kind := range supported.Kinds {
		supportedMap[kind.Network+"-"+kind.Scheme] = kind
	}

	enriched := make([]x402gate.PaymentRequirement, len(requirements))
	for i, req := range requirements {
		enriched[i] = req
		kind, ok := supportedMap[req.Network+"-"+req.Scheme]
		if !ok || kind.Extra == nil {
			continue
		}
		if enriched[i].Extra == nil {
			enriched[i].Extra = make(map[string]interface{})
		}
		for k, v := range kind.Extra {
			if _, exists := enriched[i].Extra[k]; !exists {
				enriched[i].Extra[k] = v
			}
		}
	}

	return enriched, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload facilitatorRequest) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if err := c.authorize(httpReq, http.MethodPost, endpoint); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402gate.ErrFacilitatorUnavailable, err)
	}
	return resp, nil
}

func (c *Client) authorize(req *http.Request, method, endpoint string) error {
	switch {
	case c.authFunc != nil:
		value, err := c.authFunc(method, c.basePath+endpoint)
		if err != nil {
			return fmt.Errorf("authorization provider failed: %w", err)
		}
		req.Header.Set("Authorization", value)
	case c.auth != "":
		req.Header.Set("Authorization", c.auth)
	}
	return nil
}
