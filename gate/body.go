package gate

import (
	"bytes"
	"errors"
	"io"
	"net/http"
)

// ErrBodyTooLarge indicates a request body over the configured buffering cap.
var ErrBodyTooLarge = errors.New("request body too large to buffer")

// ReplayableBody buffers a request body in memory so that both the operation
// resolver and the downstream handler read the identical bytes. It replaces
// r.Body; Close is a no-op because the original body has already been drained
// and closed.
type ReplayableBody struct {
	reader *bytes.Reader
	data   []byte
}

// bufferBody drains r.Body (up to max bytes) into a ReplayableBody and
// installs it on the request. If the body exceeds max, the request is left
// with an equivalent body (buffered prefix plus the unread remainder) and
// ErrBodyTooLarge is returned, so the handler downstream still sees every
// byte the client sent.
func bufferBody(r *http.Request, max int64) (*ReplayableBody, error) {
	if r.Body == nil {
		return nil, io.EOF
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(data), r.Body), r.Body}
		return nil, ErrBodyTooLarge
	}

	r.Body.Close()
	body := &ReplayableBody{reader: bytes.NewReader(data), data: data}
	r.Body = body
	return body, nil
}

// Read reads from the current position in the buffer.
func (b *ReplayableBody) Read(p []byte) (int, error) {
	return b.reader.Read(p)
}

// Close is a no-op; the underlying body was closed when buffering.
func (b *ReplayableBody) Close() error {
	return nil
}

// Bytes returns the complete buffered body without consuming it.
func (b *ReplayableBody) Bytes() []byte {
	return b.data
}

// Rewind resets the read position so the next consumer sees the full body.
func (b *ReplayableBody) Rewind() {
	b.reader.Seek(0, io.SeekStart)
}
