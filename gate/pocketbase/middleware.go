// Package pocketbase provides PocketBase-compatible middleware for the x402
// payment gate, for use with route or group BindFunc registration.
package pocketbase

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/payrail/x402gate/facilitator"
	"github.com/payrail/x402gate/gate"
)

// ContextKey is the request event store key under which verified payment
// details are stored via e.Set.
const ContextKey = "x402_payment"

// Middleware wraps a gate into a PocketBase request middleware.
//
// Example usage:
//
//	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
//	    middleware := pbx402.Middleware(g)
//
//	    se.Router.GET("/api/premium/data", func(e *core.RequestEvent) error {
//	        payment := pbx402.Payment(e)
//	        return e.JSON(http.StatusOK, map[string]any{"payer": payment.Payer})
//	    }).BindFunc(middleware)
//
//	    premiumGroup := se.Router.Group("/api/premium")
//	    premiumGroup.BindFunc(middleware)
//	    return se.Next()
//	})
func Middleware(g *gate.Gate) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		d := g.Evaluate(e.Request)

		switch d.Action {
		case gate.ActionAbort:
			return e.InternalServerError("internal server error", nil)
		case gate.ActionChallenge:
			return e.JSON(http.StatusPaymentRequired, d.Challenge)
		case gate.ActionPass:
			return e.Next()
		}

		// Store payment info in the event store for handler access, and in
		// the stdlib context for compatibility with gate.PaymentFromContext.
		e.Set(ContextKey, d.Verify)
		ctx := context.WithValue(e.Request.Context(), gate.PaymentContextKey, d.Verify)
		e.Request = e.Request.WithContext(ctx)

		// Settlement runs when the handler commits a 2xx status.
		e.Response = g.InterceptSettlement(e.Response, e.Request, d)
		return e.Next()
	}
}

// Payment returns the verified payment details stored by the middleware, or
// nil for unpriced requests.
func Payment(e *core.RequestEvent) *facilitator.VerifyResponse {
	v, _ := e.Get(ContextKey).(*facilitator.VerifyResponse)
	return v
}
