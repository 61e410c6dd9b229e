// Package gate implements the x402 payment gate: HTTP middleware that prices
// operations, issues 402 challenges, verifies payment proofs through a
// facilitator, and settles payments after the protected handler succeeds.
//
// The gate fronts two request shapes with one engine: REST routes resolved by
// a route registry, and JSON-RPC tools/call invocations resolved by sniffing
// the request body under configured RPC path prefixes.
package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	x402gate "github.com/payrail/x402gate"
	"github.com/payrail/x402gate/encoding"
	"github.com/payrail/x402gate/facilitator"
	"github.com/payrail/x402gate/pricing"
	"github.com/payrail/x402gate/retry"
)

// Stable client-facing challenge strings. Clients match on these; diagnostic
// detail goes to logs, never into the wire error.
const (
	errNoPaymentHeader   = "no payment header provided"
	errInvalidHeader     = "invalid payment header format"
	errNoMatch           = "no matching payment requirements found"
	errVerifyUnavailable = "payment verification failed; try again later"
	errInvalidPaymentFmt = "invalid payment: %s"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// PaymentContextKey is the context key under which verified payment details
// are stored for downstream handlers.
const PaymentContextKey = contextKey("x402_payment")

// PaymentFromContext returns the verified payment details stored by the gate,
// or nil for unpriced requests.
func PaymentFromContext(ctx context.Context) *facilitator.VerifyResponse {
	v, _ := ctx.Value(PaymentContextKey).(*facilitator.VerifyResponse)
	return v
}

// Action is the gate's per-request verdict.
type Action int

const (
	// ActionPass lets the request through without payment: the operation is
	// unknown, unpriced, or produced no usable requirements.
	ActionPass Action = iota

	// ActionChallenge rejects the request with a 402 challenge.
	ActionChallenge

	// ActionProceed runs the handler with a verified payment; settlement
	// happens when the handler commits a 2xx response.
	ActionProceed

	// ActionAbort reports an internal gate failure as a generic 500.
	ActionAbort
)

// Decision is the outcome of evaluating one request. Framework adapters
// translate it into their own response primitives.
type Decision struct {
	Action      Action
	Operation   string
	Challenge   *x402gate.PaymentRequirementsResponse
	Payment     x402gate.PaymentPayload
	Requirement x402gate.PaymentRequirement
	Verify      *facilitator.VerifyResponse
}

// Config holds the gate configuration. Everything is explicit and validated
// once in New; nothing is discovered or re-decided per request.
type Config struct {
	// Pricing is the operation pricing table. Nil or empty means every
	// request passes through.
	Pricing *pricing.Table

	// Routes resolves REST requests to operation IDs. Optional.
	Routes RouteRegistry

	// RPCPrefixes lists path prefixes under which POST bodies are sniffed
	// for JSON-RPC tools/call. Optional.
	RPCPrefixes []string

	// MaxRPCBodyBytes caps JSON-RPC body buffering. Defaults to 1 MiB.
	MaxRPCBodyBytes int64

	// PayTo is the payment recipient address placed in every requirement.
	PayTo string

	// Facilitator verifies and settles payments. Required whenever the
	// pricing table is non-empty.
	Facilitator facilitator.Facilitator

	// Schemes carries scheme-specific requirement extras. Defaults to
	// x402gate.DefaultSchemeRegistry().
	Schemes x402gate.SchemeRegistry

	// Timeouts bounds facilitator calls. Defaults to x402gate.DefaultTimeouts.
	Timeouts x402gate.Timeouts

	// Retry is applied around verification only; settlement never retries.
	// Defaults to retry.DefaultPolicy.
	Retry retry.Policy

	// MaxTimeoutSeconds is the payment authorization validity window
	// advertised in requirements. Defaults to 300.
	MaxTimeoutSeconds int

	// VerifyOnly skips settlement after the handler succeeds. No receipt
	// header is emitted in this mode.
	VerifyOnly bool

	// Enforce makes incomplete payment configuration a startup error
	// instead of a logged pass-through.
	Enforce bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Gate is the payment gate engine shared by the stdlib middleware and the
// framework adapters.
type Gate struct {
	pricing     *pricing.Table
	resolver    *Resolver
	builder     *Builder
	facilitator facilitator.Facilitator
	timeouts    x402gate.Timeouts
	retry       retry.Policy
	verifyOnly  bool
	disabled    bool
	logger      *slog.Logger
}

// New validates the configuration and builds a gate. Misconfiguration that
// would otherwise surface per request is a hard error here: enforcement with
// an empty pricing table, enforcement without a payee, a priced table without
// a facilitator, or an invalid pricing entry.
func New(cfg Config) (*Gate, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	table := cfg.Pricing
	if table == nil {
		table = pricing.Empty()
	}

	if cfg.Enforce && table.Len() == 0 {
		return nil, fmt.Errorf("%w: payment enforcement requested with an empty pricing table", x402gate.ErrConfiguration)
	}
	if cfg.Enforce && cfg.PayTo == "" {
		return nil, fmt.Errorf("%w: payment enforcement requested without a payee address", x402gate.ErrConfiguration)
	}
	if table.Len() > 0 && cfg.Facilitator == nil {
		return nil, fmt.Errorf("%w: pricing table set but no facilitator configured", x402gate.ErrConfiguration)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", x402gate.ErrConfiguration, err)
	}

	timeouts := cfg.Timeouts
	if timeouts == (x402gate.Timeouts{}) {
		timeouts = x402gate.DefaultTimeouts
	}
	if err := timeouts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid timeouts", x402gate.ErrConfiguration)
	}

	policy := cfg.Retry
	if policy == (retry.Policy{}) {
		policy = retry.DefaultPolicy
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", x402gate.ErrConfiguration, err)
	}

	schemes := cfg.Schemes
	if schemes == nil {
		schemes = x402gate.DefaultSchemeRegistry()
	}

	disabled := false
	if cfg.PayTo == "" && table.Len() > 0 {
		logger.Warn("no payee address configured; payment gate disabled, requests pass through")
		disabled = true
	}

	return &Gate{
		pricing:     table,
		resolver:    NewResolver(cfg.Routes, cfg.RPCPrefixes, cfg.MaxRPCBodyBytes, logger),
		builder:     NewBuilder(cfg.PayTo, schemes, cfg.MaxTimeoutSeconds, logger),
		facilitator: cfg.Facilitator,
		timeouts:    timeouts,
		retry:       policy,
		verifyOnly:  cfg.VerifyOnly,
		disabled:    disabled,
		logger:      logger,
	}, nil
}

// Evaluate runs the payment state machine for one request, up to but not
// including settlement. It may replace r.Body with a replayable buffer when
// JSON-RPC resolution needs to read it. A panic during evaluation becomes
// ActionAbort so one bad evaluation cannot take down unrelated endpoints.
func (g *Gate) Evaluate(r *http.Request) (d Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("panic in payment gate", "panic", rec, "path", r.URL.Path)
			d = Decision{Action: ActionAbort}
		}
	}()
	return g.evaluate(r)
}

func (g *Gate) evaluate(r *http.Request) Decision {
	if g.disabled {
		return Decision{Action: ActionPass}
	}

	op, ok := g.resolver.Resolve(r)
	if !ok {
		return Decision{Action: ActionPass}
	}

	logger := g.logger.With("operation", op, "path", r.URL.Path)

	options := g.pricing.OptionsFor(op)
	if len(options) == 0 {
		return Decision{Action: ActionPass, Operation: op}
	}

	requirements := g.builder.Build(r, op, options)
	if len(requirements) == 0 {
		logger.Warn("priced operation produced no payment requirements; passing through")
		return Decision{Action: ActionPass, Operation: op}
	}

	header := paymentHeaderValue(r)
	if header == "" {
		logger.Info("no payment header provided")
		return g.challenge(op, requirements, errNoPaymentHeader)
	}

	payment, err := encoding.DecodePayment(header)
	if err != nil {
		logger.Warn("invalid payment header", "error", err)
		return g.challenge(op, requirements, errInvalidHeader)
	}

	requirement, err := x402gate.FindMatchingRequirement(payment, requirements)
	if err != nil {
		logger.Warn("no matching requirement", "scheme", payment.Scheme, "network", payment.Network)
		return g.challenge(op, requirements, errNoMatch)
	}

	verifyResp, err := retry.Do(r.Context(), g.retry,
		func(err error) bool { return errors.Is(err, x402gate.ErrFacilitatorUnavailable) },
		func(ctx context.Context) (*facilitator.VerifyResponse, error) {
			return g.facilitator.Verify(ctx, payment, *requirement)
		})
	if err != nil {
		logger.Error("facilitator verification failed", "error", err)
		return g.challenge(op, requirements, errVerifyUnavailable)
	}

	if !verifyResp.IsValid {
		logger.Warn("payment rejected", "reason", verifyResp.InvalidReason)
		return g.challenge(op, requirements, fmt.Sprintf(errInvalidPaymentFmt, verifyResp.InvalidReason))
	}

	logger.Info("payment verified", "payer", verifyResp.Payer)
	return Decision{
		Action:      ActionProceed,
		Operation:   op,
		Payment:     payment,
		Requirement: *requirement,
		Verify:      verifyResp,
	}
}

func (g *Gate) challenge(op string, requirements []x402gate.PaymentRequirement, message string) Decision {
	return Decision{
		Action:    ActionChallenge,
		Operation: op,
		Challenge: &x402gate.PaymentRequirementsResponse{
			X402Version: 1,
			Error:       message,
			Accepts:     requirements,
		},
	}
}

// SettleReceipt settles a verified payment and returns the encoded receipt
// for the X-Payment-Response header. ok=false means no header should be set:
// verify-only mode, settlement failure, or receipt encoding failure. The
// handler's response is never altered on settlement failure; a delivered
// 2xx stands even when the charge could not be collected.
func (g *Gate) SettleReceipt(ctx context.Context, d Decision) (string, bool) {
	if g.verifyOnly || d.Action != ActionProceed {
		return "", false
	}

	logger := g.logger.With("operation", d.Operation, "payer", d.Verify.Payer)

	ctx, cancel := context.WithTimeout(ctx, g.timeouts.SettleTimeout)
	defer cancel()

	settlement, err := g.facilitator.Settle(ctx, d.Payment, d.Requirement)
	if err != nil {
		logger.Error("settlement failed", "error", err)
		return "", false
	}
	if !settlement.Success {
		logger.Warn("settlement unsuccessful", "reason", settlement.ErrorReason)
		return "", false
	}

	logger.Info("payment settled", "transaction", settlement.Transaction)

	receipt, err := encoding.EncodeSettlement(*settlement)
	if err != nil {
		logger.Warn("failed to encode settlement receipt", "error", err)
		return "", false
	}
	return receipt, true
}

// WriteChallenge writes a 402 response with the challenge body.
func WriteChallenge(w http.ResponseWriter, challenge *x402gate.PaymentRequirementsResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	_ = json.NewEncoder(w).Encode(challenge)
}

// Handler wraps next with the payment gate.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Evaluate(r)

		switch d.Action {
		case ActionAbort:
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		case ActionChallenge:
			WriteChallenge(w, d.Challenge)
			return
		case ActionPass:
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), PaymentContextKey, d.Verify)
		r = r.WithContext(ctx)
		next.ServeHTTP(g.InterceptSettlement(w, r, d), r)
	})
}

// InterceptSettlement wraps w so that settlement runs exactly once, at the
// moment the handler commits a 2xx status. Non-2xx responses pass through
// with no settlement attempt.
func (g *Gate) InterceptSettlement(w http.ResponseWriter, r *http.Request, d Decision) http.ResponseWriter {
	return &settlementInterceptor{
		w: w,
		settle: func() (string, bool) {
			return g.SettleReceipt(r.Context(), d)
		},
		onSkip: func(statusCode int) {
			g.logger.Info("handler returned non-success; skipping settlement",
				"operation", d.Operation, "status", statusCode)
		},
	}
}
