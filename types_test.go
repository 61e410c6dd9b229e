package x402gate

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"
)

func TestAmountToBigInt(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     int64
		wantErr  bool
	}{
		{name: "whole amount", amount: "1", decimals: 6, want: 1000000},
		{name: "fractional amount", amount: "1.5", decimals: 6, want: 1500000},
		{name: "zero", amount: "0", decimals: 6, want: 0},
		{name: "atomic precision", amount: "0.000001", decimals: 6, want: 1},
		{name: "not a number", amount: "abc", decimals: 6, wantErr: true},
		{name: "too many decimals", amount: "0.0000001", decimals: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AmountToBigInt(tt.amount, tt.decimals)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Int64() != tt.want {
				t.Errorf("expected %d, got %s", tt.want, got)
			}
		})
	}
}

func TestBigIntToAmount(t *testing.T) {
	if got := BigIntToAmount(big.NewInt(1500000), 6); got != "1.500000" {
		t.Errorf("expected 1.500000, got %s", got)
	}
	if got := BigIntToAmount(nil, 6); got != "0" {
		t.Errorf("expected 0 for nil value, got %s", got)
	}
}

func TestPaymentRequirementsResponseJSON(t *testing.T) {
	resp := PaymentRequirementsResponse{
		X402Version: 1,
		Error:       "no payment header provided",
		Accepts: []PaymentRequirement{{
			Scheme:            "exact",
			Network:           "base-sepolia",
			MaxAmountRequired: "1000",
			Asset:             BaseSepolia.USDCAddress,
			PayTo:             "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0",
			MaxTimeoutSeconds: 300,
		}},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["x402Version"] != float64(1) {
		t.Errorf("expected x402Version 1, got %v", decoded["x402Version"])
	}
	accepts, ok := decoded["accepts"].([]interface{})
	if !ok || len(accepts) != 1 {
		t.Fatalf("expected one accepts entry, got %v", decoded["accepts"])
	}
	first := accepts[0].(map[string]interface{})
	if first["maxAmountRequired"] != "1000" {
		t.Errorf("expected maxAmountRequired as string \"1000\", got %v", first["maxAmountRequired"])
	}
}
