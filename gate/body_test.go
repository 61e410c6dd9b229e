package gate

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBufferBody(t *testing.T) {
	t.Run("replay returns identical bytes", func(t *testing.T) {
		payload := `{"method":"tools/call","params":{"name":"t"}}`
		r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(payload))

		body, err := bufferBody(r, 1024)
		if err != nil {
			t.Fatal(err)
		}
		if string(body.Bytes()) != payload {
			t.Errorf("buffered bytes differ: %q", body.Bytes())
		}

		// First read drains the buffer, rewind restores it.
		first, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatal(err)
		}
		body.Rewind()
		second, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, second) || string(second) != payload {
			t.Errorf("replayed body differs: first=%q second=%q", first, second)
		}
	})

	t.Run("oversized body keeps all bytes readable", func(t *testing.T) {
		payload := strings.Repeat("a", 100)
		r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(payload))

		_, err := bufferBody(r, 10)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("expected ErrBodyTooLarge, got %v", err)
		}

		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != payload {
			t.Errorf("downstream lost bytes: got %d of %d", len(data), len(payload))
		}
	})

	t.Run("body at the cap buffers fully", func(t *testing.T) {
		payload := strings.Repeat("b", 10)
		r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(payload))

		body, err := bufferBody(r, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body.Bytes()) != payload {
			t.Errorf("buffered bytes differ: %q", body.Bytes())
		}
	})

	t.Run("close is a no-op", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("x"))
		body, err := bufferBody(r, 10)
		if err != nil {
			t.Fatal(err)
		}
		if err := body.Close(); err != nil {
			t.Errorf("unexpected close error: %v", err)
		}
		body.Rewind()
		data, _ := io.ReadAll(body)
		if string(data) != "x" {
			t.Errorf("body unreadable after close: %q", data)
		}
	})
}
