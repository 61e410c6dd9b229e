package facilitator

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
)

func testPEMKey(t *testing.T) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
}

func TestNewCDPAuth(t *testing.T) {
	t.Run("valid ECDSA key", func(t *testing.T) {
		auth, err := NewCDPAuth("organizations/abc/apiKeys/xyz", testPEMKey(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if auth == nil {
			t.Fatal("expected auth instance")
		}
	})

	t.Run("empty key name", func(t *testing.T) {
		if _, err := NewCDPAuth("", testPEMKey(t)); err == nil {
			t.Error("expected error for empty apiKeyName")
		}
	})

	t.Run("invalid PEM", func(t *testing.T) {
		if _, err := NewCDPAuth("organizations/abc/apiKeys/xyz", "not a pem"); err == nil {
			t.Error("expected error for invalid PEM")
		}
	})
}

func TestCDPAuthBearerToken(t *testing.T) {
	auth, err := NewCDPAuth("organizations/abc/apiKeys/xyz", testPEMKey(t))
	if err != nil {
		t.Fatal(err)
	}

	token, err := auth.BearerToken("POST", "api.cdp.coinbase.com", "/platform/v2/x402/verify")
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("expected compact JWT with 3 segments, got %d", len(parts))
	}
}

func TestCDPAuthProvider(t *testing.T) {
	auth, err := NewCDPAuth("organizations/abc/apiKeys/xyz", testPEMKey(t))
	if err != nil {
		t.Fatal(err)
	}

	provider := auth.Provider("api.cdp.coinbase.com")
	value, err := provider("POST", "/platform/v2/x402/settle")
	if err != nil {
		t.Fatalf("provider failed: %v", err)
	}
	if !strings.HasPrefix(value, "Bearer ") {
		t.Errorf("expected Bearer prefix, got %q", value)
	}
}

func TestNew(t *testing.T) {
	t.Run("plain client without credentials", func(t *testing.T) {
		f, err := New(Config{URL: "https://facilitator.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f == nil {
			t.Fatal("expected facilitator")
		}
	})

	t.Run("defaults URL", func(t *testing.T) {
		f, err := New(Config{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		client, ok := f.(*Client)
		if !ok {
			t.Fatal("expected *Client")
		}
		if client.baseURL != DefaultURL {
			t.Errorf("expected default URL, got %s", client.baseURL)
		}
	})

	t.Run("CDP credentials select CDP client", func(t *testing.T) {
		f, err := New(Config{
			CDPAPIKeyName:   "organizations/abc/apiKeys/xyz",
			CDPAPIKeySecret: testPEMKey(t),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		client, ok := f.(*Client)
		if !ok {
			t.Fatal("expected *Client")
		}
		if client.baseURL != DefaultCDPURL {
			t.Errorf("expected CDP URL, got %s", client.baseURL)
		}
		if client.authFunc == nil {
			t.Error("expected authorization provider to be wired")
		}
	})

	t.Run("bad CDP credentials fail at construction", func(t *testing.T) {
		if _, err := New(Config{CDPAPIKeyName: "name", CDPAPIKeySecret: "garbage"}); err == nil {
			t.Error("expected error for unparseable key")
		}
	})
}
