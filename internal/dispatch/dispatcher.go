package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/flowgrid/internal/ctxlog"
	"github.com/specialistvlad/flowgrid/internal/plan"
	"github.com/zishang520/engine.io/v2/types"
)

// Event names of the backend protocol.
const (
	EventFlow  = "flow"
	EventDone  = "flow:done"
	EventError = "flow:error"
)

var (
	// ErrNotConnected is returned when the client has no live connection.
	ErrNotConnected = errors.New("backend client is not connected")
	// ErrBackend wraps failures reported by the backend.
	ErrBackend = errors.New("backend reported an error")
)

// Request is the payload of the "flow" event.
type Request struct {
	Path       string           `json:"path"`
	Operations []plan.Operation `json:"operations"`
	Quoting    bool             `json:"quoting"`
}

// Result is the payload of the "flow:done" event. Elapsed is the
// backend's processing time in seconds, as the backend formats it.
type Result struct {
	Elapsed string `json:"elapsed"`
}

// Dispatcher sends requests over a Client, one at a time.
type Dispatcher struct {
	mu      sync.Mutex
	client  Client
	timeout time.Duration
}

// New creates a dispatcher. A non-positive timeout means the caller's
// context alone bounds the wait.
func New(client Client, timeout time.Duration) *Dispatcher {
	return &Dispatcher{client: client, timeout: timeout}
}

type outcome struct {
	result Result
	err    error
}

// Dispatch emits the request and waits for the completion or error event.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.client.Connected() {
		return Result{}, ErrNotConnected
	}
	logger := ctxlog.FromContext(ctx).With("sid", d.client.Id())

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	payload, err := toPayload(req)
	if err != nil {
		return Result{}, err
	}

	done := make(chan outcome, 2)
	d.client.Once(types.EventName(EventDone), func(data ...any) {
		var res Result
		if len(data) > 0 {
			res.Elapsed = elapsedOf(data[0])
		}
		done <- outcome{result: res}
	})
	d.client.Once(types.EventName(EventError), func(data ...any) {
		msg := "unknown error"
		if len(data) > 0 {
			msg = messageOf(data[0])
		}
		done <- outcome{err: fmt.Errorf("%w: %s", ErrBackend, msg)}
	})
	defer func() {
		d.client.RemoveAllListeners(types.EventName(EventDone))
		d.client.RemoveAllListeners(types.EventName(EventError))
	}()

	logger.Info("Dispatching plan.", "path", req.Path, "operations", len(req.Operations))
	if err := d.client.Emit(EventFlow, payload); err != nil {
		return Result{}, fmt.Errorf("failed to emit %q: %w", EventFlow, err)
	}

	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("gave up waiting for %q: %w", EventDone, ctx.Err())
	case out := <-done:
		if out.err != nil {
			logger.Error("Backend failed.", "error", out.err)
			return Result{}, out.err
		}
		logger.Info("Backend finished.", "elapsed", out.result.Elapsed)
		return out.result, nil
	}
}

// toPayload turns the request into plain JSON values for the wire encoder.
func toPayload(req Request) (map[string]any, error) {
	if req.Operations == nil {
		req.Operations = []plan.Operation{}
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return out, nil
}

func elapsedOf(v any) string {
	switch t := v.(type) {
	case map[string]any:
		return elapsedOf(t["elapsed"])
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.2f", t)
	default:
		return ""
	}
}

func messageOf(v any) string {
	switch t := v.(type) {
	case map[string]any:
		if msg, ok := t["message"].(string); ok {
			return msg
		}
	case string:
		return t
	case error:
		return t.Error()
	}
	return fmt.Sprint(v)
}
