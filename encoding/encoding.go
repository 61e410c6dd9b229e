// Package encoding provides the wire codec for x402 payment proofs and
// settlement receipts: base64-encoded JSON carried in HTTP headers.
package encoding

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	x402gate "github.com/payrail/x402gate"
)

// EncodePayment converts a PaymentPayload to a base64-encoded JSON string
// suitable for the X-Payment header.
func EncodePayment(payment x402gate.PaymentPayload) (string, error) {
	paymentJSON, err := json.Marshal(payment)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment: %w", err)
	}
	return base64.StdEncoding.EncodeToString(paymentJSON), nil
}

// DecodePayment converts a base64-encoded JSON string to a PaymentPayload.
//
// Every structural failure (bad base64, bad JSON, unsupported version,
// missing network or scheme) collapses into ErrMalformedHeader so that
// clients receive one stable challenge regardless of how the header was
// broken. The wrapped detail is for logs only.
func DecodePayment(encoded string) (x402gate.PaymentPayload, error) {
	var payment x402gate.PaymentPayload

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return payment, fmt.Errorf("%w: invalid base64: %v", x402gate.ErrMalformedHeader, err)
	}

	if err := json.Unmarshal(decoded, &payment); err != nil {
		return payment, fmt.Errorf("%w: invalid JSON: %v", x402gate.ErrMalformedHeader, err)
	}

	if payment.X402Version != 1 {
		return payment, fmt.Errorf("%w: unsupported version %d", x402gate.ErrMalformedHeader, payment.X402Version)
	}
	if payment.Scheme == "" {
		return payment, fmt.Errorf("%w: missing scheme", x402gate.ErrMalformedHeader)
	}
	if payment.Network == "" {
		return payment, fmt.Errorf("%w: missing network", x402gate.ErrMalformedHeader)
	}

	return payment, nil
}

// EncodeSettlement converts a SettlementResponse to a base64-encoded JSON
// string suitable for the X-Payment-Response header.
func EncodeSettlement(settlement x402gate.SettlementResponse) (string, error) {
	settlementJSON, err := json.Marshal(settlement)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settlement: %w", err)
	}
	return base64.StdEncoding.EncodeToString(settlementJSON), nil
}

// DecodeSettlement converts a base64-encoded JSON string to a SettlementResponse.
func DecodeSettlement(encoded string) (x402gate.SettlementResponse, error) {
	var settlement x402gate.SettlementResponse

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return settlement, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &settlement); err != nil {
		return settlement, fmt.Errorf("failed to unmarshal settlement: %w", err)
	}

	return settlement, nil
}
