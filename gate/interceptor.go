package gate

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// settlementInterceptor wraps the ResponseWriter to intercept the moment of
// commitment. Settlement runs exactly once, when the handler first commits a
// 2xx status; the receipt header must be set before the status line is
// written. A settlement failure never changes the handler's response.
type settlementInterceptor struct {
	w http.ResponseWriter
	// settle performs settlement and returns the encoded receipt
	settle func() (string, bool)
	// onSkip is an internal logging callback for non-2xx commits
	onSkip    func(statusCode int)
	committed bool
}

func (i *settlementInterceptor) Header() http.Header {
	return i.w.Header()
}

func (i *settlementInterceptor) Write(b []byte) (int, error) {
	// A Write without WriteHeader implies 200 OK; commit now.
	if !i.committed {
		i.WriteHeader(http.StatusOK)
	}
	return i.w.Write(b)
}

func (i *settlementInterceptor) WriteHeader(statusCode int) {
	if i.committed {
		return
	}
	i.committed = true

	if statusCode < 200 || statusCode >= 300 {
		if i.onSkip != nil {
			i.onSkip(statusCode)
		}
		i.w.WriteHeader(statusCode)
		return
	}

	if receipt, ok := i.settle(); ok {
		i.w.Header().Set(PaymentResponseHeader, receipt)
	}
	i.w.WriteHeader(statusCode)
}

// Flush implements http.Flusher to support streaming responses.
func (i *settlementInterceptor) Flush() {
	if flusher, ok := i.w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker to support connection hijacking.
func (i *settlementInterceptor) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := i.w.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, errors.New("hijacking not supported")
}

// Push implements http.Pusher to support HTTP/2 server push.
func (i *settlementInterceptor) Push(target string, opts *http.PushOptions) error {
	if pusher, ok := i.w.(http.Pusher); ok {
		return pusher.Push(target, opts)
	}
	return http.ErrNotSupported
}
