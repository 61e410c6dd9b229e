package gate

import "net/http"

// Payment header names. The current name wins when both are present; the
// legacy name is kept for clients predating the consolidation.
const (
	PaymentHeader         = "X-Payment"
	LegacyPaymentHeader   = "X-402-Payment"
	PaymentResponseHeader = "X-Payment-Response"
)

// paymentHeaderValue extracts the encoded payment proof from a request.
func paymentHeaderValue(r *http.Request) string {
	if v := r.Header.Get(PaymentHeader); v != "" {
		return v
	}
	return r.Header.Get(LegacyPaymentHeader)
}
