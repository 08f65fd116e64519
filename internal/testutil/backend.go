package testutil

import (
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/zishang520/socket.io/v2/socket"
)

// Reply is what a fake backend answers to a flow request: the event name
// and its payload. An empty Event sends nothing.
type Reply struct {
	Event   string
	Payload map[string]any
}

// Backend is an in-process socket.io server standing in for the processing
// backend.
type Backend struct {
	URL string

	mu       sync.Mutex
	requests []map[string]any
}

// Requests returns the flow payloads received so far.
func (b *Backend) Requests() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]map[string]any, len(b.requests))
	copy(out, b.requests)
	return out
}

// StartBackend serves a socket.io backend that answers every "flow" event
// with reply(payload). It is shut down when the test ends.
func StartBackend(t *testing.T, reply func(payload map[string]any) Reply) *Backend {
	t.Helper()

	b := &Backend{}
	io := socket.NewServer(nil, nil)
	io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		client.On("flow", func(args ...any) {
			var payload map[string]any
			if len(args) > 0 {
				payload, _ = args[0].(map[string]any)
			}
			b.mu.Lock()
			b.requests = append(b.requests, payload)
			b.mu.Unlock()

			r := reply(payload)
			if r.Event != "" {
				client.Emit(r.Event, r.Payload)
			}
		})
	})

	srv := httptest.NewServer(io.ServeHandler(nil))
	b.URL = srv.URL
	t.Cleanup(func() {
		io.Close(nil)
		srv.Close()
	})
	return b
}
