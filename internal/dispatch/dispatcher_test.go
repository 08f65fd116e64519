package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zishang520/engine.io/v2/types"
)

// fakeClient records emitted events and lets a test script the backend's
// reply through respond.
type fakeClient struct {
	mu        sync.Mutex
	connected bool
	listeners map[types.EventName][]types.Listener
	emitted   []emitted
	respond   func(c *fakeClient, ev string, args ...any)
}

type emitted struct {
	event string
	args  []any
}

func newFakeClient(respond func(c *fakeClient, ev string, args ...any)) *fakeClient {
	return &fakeClient{
		connected: true,
		listeners: make(map[types.EventName][]types.Listener),
		respond:   respond,
	}
}

func (c *fakeClient) Emit(ev string, args ...any) error {
	c.mu.Lock()
	c.emitted = append(c.emitted, emitted{event: ev, args: args})
	c.mu.Unlock()
	if c.respond != nil {
		go c.respond(c, ev, args...)
	}
	return nil
}

func (c *fakeClient) Once(ev types.EventName, listeners ...types.Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[ev] = append(c.listeners[ev], listeners...)
	return nil
}

func (c *fakeClient) RemoveAllListeners(ev types.EventName) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.listeners[ev]
	delete(c.listeners, ev)
	return ok
}

func (c *fakeClient) Connected() bool { return c.connected }
func (c *fakeClient) Id() string      { return "fake-sid" }

// fire invokes and removes the listeners of an event, as Once does.
func (c *fakeClient) fire(ev string, args ...any) {
	c.mu.Lock()
	ls := c.listeners[types.EventName(ev)]
	delete(c.listeners, types.EventName(ev))
	c.mu.Unlock()
	for _, l := range ls {
		l(args...)
	}
}

func (c *fakeClient) listenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ls := range c.listeners {
		n += len(ls)
	}
	return n
}

func sampleRequest() Request {
	return Request{
		Path:    "/data/orders.csv",
		Quoting: true,
		Operations: []plan.Operation{
			{ID: "f", Type: node.Filter, Op: "filter", Mode: "gt", Column: "amount", Value: "10"},
		},
	}
}

func TestDispatch_Done(t *testing.T) {
	client := newFakeClient(func(c *fakeClient, ev string, args ...any) {
		c.fire(EventDone, map[string]any{"elapsed": "0.42"})
	})
	d := New(client, time.Second)

	res, err := d.Dispatch(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "0.42", res.Elapsed)

	require.Len(t, client.emitted, 1)
	assert.Equal(t, EventFlow, client.emitted[0].event)
	payload, ok := client.emitted[0].args[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/data/orders.csv", payload["path"])
	assert.Equal(t, true, payload["quoting"])
	ops := payload["operations"].([]any)
	require.Len(t, ops, 1)
	assert.Equal(t, map[string]any{"id": "f", "type": "filter", "op": "filter", "mode": "gt", "column": "amount", "value": "10"}, ops[0])

	assert.Equal(t, 0, client.listenerCount(), "listeners are cleaned up")
}

func TestDispatch_BackendError(t *testing.T) {
	client := newFakeClient(func(c *fakeClient, ev string, args ...any) {
		c.fire(EventError, map[string]any{"message": "column not found: amount"})
	})
	d := New(client, time.Second)

	_, err := d.Dispatch(context.Background(), sampleRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackend))
	assert.Contains(t, err.Error(), "column not found: amount")
	assert.Equal(t, 0, client.listenerCount())
}

func TestDispatch_Timeout(t *testing.T) {
	client := newFakeClient(nil)
	d := New(client, 20*time.Millisecond)

	_, err := d.Dispatch(context.Background(), sampleRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, client.listenerCount())
}

func TestDispatch_ContextCancelled(t *testing.T) {
	client := newFakeClient(nil)
	d := New(client, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dispatch(ctx, sampleRequest())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDispatch_NotConnected(t *testing.T) {
	client := newFakeClient(nil)
	client.connected = false

	_, err := New(client, time.Second).Dispatch(context.Background(), sampleRequest())
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.Empty(t, client.emitted)
}

func TestPayloadHelpers(t *testing.T) {
	assert.Equal(t, "1.50", elapsedOf(map[string]any{"elapsed": 1.5}))
	assert.Equal(t, "2.00", elapsedOf("2.00"))
	assert.Equal(t, "", elapsedOf(nil))

	assert.Equal(t, "boom", messageOf("boom"))
	assert.Equal(t, "boom", messageOf(errors.New("boom")))
	assert.Equal(t, "map[code:7]", messageOf(map[string]any{"code": 7}))
}
