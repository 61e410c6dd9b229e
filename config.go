package x402gate

import "time"

// Timeouts holds per-operation timeout configuration for facilitator calls.
type Timeouts struct {
	// VerifyTimeout bounds a single verification call.
	VerifyTimeout time.Duration

	// SettleTimeout bounds a settlement call (longer due to blockchain tx).
	SettleTimeout time.Duration

	// RequestTimeout bounds an entire request lifecycle.
	RequestTimeout time.Duration
}

// DefaultTimeouts provides sensible defaults for facilitator operations.
var DefaultTimeouts = Timeouts{
	VerifyTimeout:  5 * time.Second,
	SettleTimeout:  60 * time.Second,
	RequestTimeout: 120 * time.Second,
}

// WithVerifyTimeout returns a copy with the verify timeout replaced.
func (t Timeouts) WithVerifyTimeout(d time.Duration) Timeouts {
	t.VerifyTimeout = d
	return t
}

// WithSettleTimeout returns a copy with the settle timeout replaced.
func (t Timeouts) WithSettleTimeout(d time.Duration) Timeouts {
	t.SettleTimeout = d
	return t
}

// WithRequestTimeout returns a copy with the request timeout replaced.
func (t Timeouts) WithRequestTimeout(d time.Duration) Timeouts {
	t.RequestTimeout = d
	return t
}

// Validate checks that all timeouts are positive.
func (t Timeouts) Validate() error {
	if t.VerifyTimeout <= 0 || t.SettleTimeout <= 0 || t.RequestTimeout <= 0 {
		return ErrConfiguration
	}
	return nil
}
