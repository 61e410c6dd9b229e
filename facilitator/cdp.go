package facilitator

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"

	x402gate "github.com/payrail/x402gate"
)

// DefaultCDPURL is the Coinbase Developer Platform x402 facilitator endpoint.
const DefaultCDPURL = "https://api.cdp.coinbase.com/platform/v2/x402"

// Config selects and configures a facilitator implementation. The choice is
// made once, at construction; the gate never re-decides per request.
type Config struct {
	// URL is the facilitator base URL. Defaults to DefaultURL, or
	// DefaultCDPURL when CDP credentials are set.
	URL string

	// Timeouts bounds verify and settle calls.
	Timeouts x402gate.Timeouts

	// HTTPClient optionally replaces the default HTTP client.
	HTTPClient *http.Client

	// Logger optionally replaces slog.Default().
	Logger *slog.Logger

	// CDPAPIKeyName is the CDP API key identifier
	// (e.g., "organizations/xxx/apiKeys/yyy"). Setting it together with
	// CDPAPIKeySecret selects the CDP-authenticated facilitator.
	CDPAPIKeyName string

	// CDPAPIKeySecret is the PEM-encoded ECDSA or Ed25519 private key.
	CDPAPIKeySecret string
}

// New builds a facilitator from the configuration: CDP-authenticated when
// credentials are present, plain HTTP otherwise.
func New(cfg Config) (Facilitator, error) {
	if cfg.CDPAPIKeyName != "" || cfg.CDPAPIKeySecret != "" {
		return NewCDP(cfg)
	}

	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	return NewClient(url, clientOptions(cfg)...), nil
}

// NewCDP builds a facilitator client that authenticates every request with a
// freshly minted CDP JWT bearer token.
func NewCDP(cfg Config) (*Client, error) {
	auth, err := NewCDPAuth(cfg.CDPAPIKeyName, cfg.CDPAPIKeySecret)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = DefaultCDPURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid facilitator URL %q: %w", baseURL, err)
	}

	opts := append(clientOptions(cfg), WithAuthorizationProvider(auth.Provider(u.Host)))
	return NewClient(baseURL, opts...), nil
}

func clientOptions(cfg Config) []Option {
	var opts []Option
	if cfg.Timeouts != (x402gate.Timeouts{}) {
		opts = append(opts, WithTimeouts(cfg.Timeouts))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Logger != nil {
		opts = append(opts, WithLogger(cfg.Logger))
	}
	return opts
}

// CDPAuth generates JWT bearer tokens for CDP API authentication.
// It is immutable after construction and safe for concurrent use; the parsed
// private key is cached to avoid repeated parsing.
type CDPAuth struct {
	apiKeyName string
	privateKey interface{}
}

// cdpClaims extends the standard JWT claims with the CDP request URI claim.
type cdpClaims struct {
	*jwt.Claims
	// URI is the full request URI in format: "{METHOD} {host}{path}"
	URI string `json:"uri"`
}

// NewCDPAuth parses the PEM-encoded private key and returns an auth instance.
// Both ECDSA (SEC1 or PKCS8) and Ed25519 (PKCS8) keys are accepted.
func NewCDPAuth(apiKeyName, apiKeySecret string) (*CDPAuth, error) {
	if apiKeyName == "" {
		return nil, fmt.Errorf("apiKeyName must not be empty")
	}

	block, _ := pem.Decode([]byte(apiKeySecret))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block: invalid PEM format")
	}

	// Try SEC1 ECDSA first (most common for CDP), then PKCS8.
	var privateKey interface{}
	var err error
	privateKey, err = x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		privateKey, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
	}

	switch privateKey.(type) {
	case *ecdsa.PrivateKey:
	case crypto.Signer:
		// Ed25519 implements crypto.Signer
	default:
		return nil, fmt.Errorf("unsupported private key type: must be ECDSA or Ed25519")
	}

	return &CDPAuth{
		apiKeyName: apiKeyName,
		privateKey: privateKey,
	}, nil
}

// BearerToken generates a JWT bearer token valid for 2 minutes, bound to the
// request method, host, and path.
func (a *CDPAuth) BearerToken(method, host, path string) (string, error) {
	var alg jose.SignatureAlgorithm
	switch a.privateKey.(type) {
	case *ecdsa.PrivateKey:
		alg = jose.ES256
	default:
		alg = jose.EdDSA
	}

	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: alg, Key: a.privateKey},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", a.apiKeyName),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create JWT signer: %w", err)
	}

	now := time.Now()
	claims := &cdpClaims{
		Claims: &jwt.Claims{
			Subject:   a.apiKeyName,
			Issuer:    "coinbase-cloud",
			NotBefore: jwt.NewNumericDate(now),
			Expiry:    jwt.NewNumericDate(now.Add(2 * time.Minute)),
		},
		URI: fmt.Sprintf("%s %s%s", method, host, path),
	}

	token, err := jwt.Signed(sig).Claims(claims).CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize JWT: %w", err)
	}
	return token, nil
}

// Provider returns an AuthorizationProvider minting a bearer token per request
// for the given facilitator host.
func (a *CDPAuth) Provider(host string) AuthorizationProvider {
	return func(method, path string) (string, error) {
		token, err := a.BearerToken(method, host, path)
		if err != nil {
			return "", err
		}
		return "Bearer " + token, nil
	}
}
