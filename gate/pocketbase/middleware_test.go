package pocketbase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase/core"

	x402gate "github.com/payrail/x402gate"
	"github.com/payrail/x402gate/facilitator"
	"github.com/payrail/x402gate/gate"
	"github.com/payrail/x402gate/pricing"
	"github.com/payrail/x402gate/retry"
)

type stubFacilitator struct{}

func (stubFacilitator) Verify(ctx context.Context, payment x402gate.PaymentPayload, requirement x402gate.PaymentRequirement) (*facilitator.VerifyResponse, error) {
	return &facilitator.VerifyResponse{IsValid: true}, nil
}

func (stubFacilitator) Settle(ctx context.Context, payment x402gate.PaymentPayload, requirement x402gate.PaymentRequirement) (*x402gate.SettlementResponse, error) {
	return &x402gate.SettlementResponse{Success: true}, nil
}

func (stubFacilitator) Supported(ctx context.Context) (*facilitator.SupportedResponse, error) {
	return &facilitator.SupportedResponse{}, nil
}

func testGate(t *testing.T) *gate.Gate {
	t.Helper()
	table, err := pricing.Parse([]byte(`premium_data:
  - chain_id: 84532
    token_address: "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
    token_amount: "1000"`))
	if err != nil {
		t.Fatal(err)
	}
	g, err := gate.New(gate.Config{
		Pricing:     table,
		Routes:      gate.NewPathRegistry(gate.Route{Method: http.MethodGet, Path: "/api/premium/data", OperationID: "premium_data"}),
		PayTo:       "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0",
		Facilitator: stubFacilitator{},
		Retry:       retry.Policy{MaxAttempts: 1, BaseDelay: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestMiddlewareCreation(t *testing.T) {
	middleware := Middleware(testGate(t))
	if middleware == nil {
		t.Error("expected middleware function to be created")
	}
}

func TestMiddlewareChallengesPricedRoute(t *testing.T) {
	middleware := Middleware(testGate(t))

	rec := httptest.NewRecorder()
	event := new(core.RequestEvent)
	event.Request = httptest.NewRequest(http.MethodGet, "/api/premium/data", nil)
	event.Response = rec

	if err := middleware(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}

	var challenge x402gate.PaymentRequirementsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &challenge); err != nil {
		t.Fatalf("challenge body is not JSON: %v", err)
	}
	if challenge.Error != "no payment header provided" {
		t.Errorf("unexpected error string: %q", challenge.Error)
	}
	if len(challenge.Accepts) != 1 || challenge.Accepts[0].Network != "base-sepolia" {
		t.Errorf("unexpected accepts: %+v", challenge.Accepts)
	}
}
