package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []*Event
	err    error
	done   chan struct{}
}

func newCaptureEmitter(n int) *captureEmitter {
	return &captureEmitter{done: make(chan struct{}, n)}
}

func (c *captureEmitter) Emit(ctx context.Context, event *Event) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	err := c.err
	c.mu.Unlock()
	c.done <- struct{}{}
	return err
}

func (c *captureEmitter) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit did not complete")
	}
}

func TestEmitAsync_DeliversEvent(t *testing.T) {
	c := newCaptureEmitter(1)
	ev := &Event{Type: EventLoginSucceeded, UserID: "u1", CreatedAt: time.Now().UTC()}

	EmitAsync(c, context.Background(), ev)
	c.wait(t)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) != 1 || c.events[0] != ev {
		t.Fatalf("events = %v", c.events)
	}
}

func TestEmitAsync_NilEmitterAndEvent(t *testing.T) {
	// Must not panic or spawn anything.
	EmitAsync(nil, context.Background(), &Event{Type: EventLogout})
	c := newCaptureEmitter(1)
	EmitAsync(c, context.Background(), nil)

	select {
	case <-c.done:
		t.Fatal("nil event should not be emitted")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmitAsync_SurvivesCancelledCaller(t *testing.T) {
	c := newCaptureEmitter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The caller's context is already dead; the emit must still go through.
	EmitAsync(c, ctx, &Event{Type: EventTokenRefreshed, UserID: "u1"})
	c.wait(t)
}

func TestEmitAsync_EmitErrorDoesNotPropagate(t *testing.T) {
	c := newCaptureEmitter(1)
	c.err = errors.New("broker down")

	EmitAsync(c, context.Background(), &Event{Type: EventAccountLocked})
	c.wait(t)
	// Nothing to assert beyond "no panic, caller unaffected".
}
