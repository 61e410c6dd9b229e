// Package gin provides Gin-compatible middleware for the x402 payment gate.
// This package is a thin adapter that translates gin.Context to stdlib http
// patterns and delegates all payment decisions to the gate package.
package gin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payrail/x402gate/facilitator"
	"github.com/payrail/x402gate/gate"
)

// ContextKey is the Gin context key under which verified payment details are
// stored via c.Set.
const ContextKey = "x402_payment"

// Middleware wraps a gate into a Gin middleware.
//
// The middleware:
//   - Resolves the request to a priced operation
//   - Returns 402 Payment Required when payment is missing or invalid
//   - Stores payment information via c.Set(ContextKey, verifyResp)
//   - Settles the payment when the handler commits a 2xx status, adding the
//     X-Payment-Response receipt header before the status line is written
//
// Example usage:
//
//	g, err := gate.New(gate.Config{
//	    Pricing:     table,
//	    Routes:      gate.NewPathRegistry(gate.Route{Method: "GET", Path: "/weather", OperationID: "get_weather"}),
//	    PayTo:       "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0",
//	    Facilitator: client,
//	})
//	r := gin.Default()
//	r.Use(ginx402.Middleware(g))
//	r.GET("/weather", func(c *gin.Context) {
//	    if payment := ginx402.Payment(c); payment != nil {
//	        c.JSON(200, gin.H{"payer": payment.Payer})
//	    }
//	})
func Middleware(g *gate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Evaluate(c.Request)

		switch d.Action {
		case gate.ActionAbort:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		case gate.ActionChallenge:
			c.AbortWithStatusJSON(http.StatusPaymentRequired, d.Challenge)
			return
		case gate.ActionPass:
			c.Next()
			return
		}

		// Store payment info in Gin context for handler access, and in the
		// stdlib context for compatibility with gate.PaymentFromContext.
		c.Set(ContextKey, d.Verify)
		ctx := context.WithValue(c.Request.Context(), gate.PaymentContextKey, d.Verify)
		c.Request = c.Request.WithContext(ctx)

		c.Writer = &settlingWriter{
			ResponseWriter: c.Writer,
			settle: func() (string, bool) {
				return g.SettleReceipt(c.Request.Context(), d)
			},
		}
		c.Next()
	}
}

// Payment returns the verified payment details stored by the middleware, or
// nil for unpriced requests.
func Payment(c *gin.Context) *facilitator.VerifyResponse {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil
	}
	resp, _ := v.(*facilitator.VerifyResponse)
	return resp
}

// settlingWriter wraps gin.ResponseWriter to settle exactly once at the
// moment a 2xx status is committed. Gin buffers the status set by WriteHeader
// until WriteHeaderNow or the first Write, so every commit path is hooked.
type settlingWriter struct {
	gin.ResponseWriter
	settle    func() (string, bool)
	committed bool
}

func (w *settlingWriter) commit(statusCode int) {
	if w.committed {
		return
	}
	w.committed = true

	if statusCode < 200 || statusCode >= 300 {
		return
	}
	if receipt, ok := w.settle(); ok {
		w.Header().Set(gate.PaymentResponseHeader, receipt)
	}
}

func (w *settlingWriter) WriteHeader(statusCode int) {
	w.commit(statusCode)
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *settlingWriter) WriteHeaderNow() {
	w.commit(w.Status())
	w.ResponseWriter.WriteHeaderNow()
}

func (w *settlingWriter) Write(b []byte) (int, error) {
	w.commit(w.Status())
	return w.ResponseWriter.Write(b)
}

func (w *settlingWriter) WriteString(s string) (int, error) {
	w.commit(w.Status())
	return w.ResponseWriter.WriteString(s)
}
