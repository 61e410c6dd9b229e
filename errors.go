package x402gate

import "errors"

// Standard x402 error definitions

var (
	// ErrPaymentRequired indicates that payment is required to access the resource.
	ErrPaymentRequired = errors.New("payment required")

	// ErrInvalidPayment indicates that the provided payment is invalid.
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrMalformedHeader indicates that the payment header is malformed.
	ErrMalformedHeader = errors.New("malformed payment header")

	// ErrUnsupportedVersion indicates an unsupported x402 protocol version.
	ErrUnsupportedVersion = errors.New("unsupported x402 version")

	// ErrUnsupportedScheme indicates an unsupported payment scheme.
	ErrUnsupportedScheme = errors.New("unsupported payment scheme")

	// ErrUnsupportedNetwork indicates an unsupported blockchain network.
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrNoMatchingRequirement indicates no payment requirement matches the payment proof.
	ErrNoMatchingRequirement = errors.New("no matching payment requirement")

	// ErrUnknownChain indicates a chain ID with no registered configuration.
	ErrUnknownChain = errors.New("unknown chain")

	// ErrInvalidAmount indicates a payment amount that cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrFacilitatorUnavailable indicates the facilitator service is unreachable.
	ErrFacilitatorUnavailable = errors.New("facilitator unavailable")

	// ErrVerificationFailed indicates payment verification failed.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrSettlementFailed indicates on-chain settlement failed.
	ErrSettlementFailed = errors.New("settlement failed")

	// ErrConfiguration indicates an invalid gate configuration detected at startup.
	ErrConfiguration = errors.New("invalid configuration")
)
