// Package facilitator provides clients for x402 facilitator services, which
// verify payment proofs and settle payments on chain on the server's behalf.
package facilitator

import (
	"context"

	x402gate "github.com/payrail/x402gate"
)

// DefaultURL is the public facilitator used when none is configured.
const DefaultURL = "https://facilitator.x402.rs"

// Facilitator is the verification and settlement contract the payment gate
// depends on. Implementations must be safe for concurrent use.
type Facilitator interface {
	// Verify checks a payment authorization without executing the transaction.
	Verify(ctx context.Context, payment x402gate.PaymentPayload, requirement x402gate.PaymentRequirement) (*VerifyResponse, error)

	// Settle executes a verified payment on the blockchain.
	Settle(ctx context.Context, payment x402gate.PaymentPayload, requirement x402gate.PaymentRequirement) (*x402gate.SettlementResponse, error)

	// Supported queries the facilitator for supported payment types.
	Supported(ctx context.Context) (*SupportedResponse, error)
}

// VerifyResponse contains the payment verification result from the facilitator.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer"`
}

// SupportedKind describes a supported payment type with its configuration.
type SupportedKind struct {
	X402Version int                    `json:"x402Version"`
	Scheme      string                 `json:"scheme"`
	Network     string                 `json:"network"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// SupportedResponse lists all payment types supported by the facilitator.
type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}
