package telemetry

import "context"

// EventEmitter emits security events. Callers use it best-effort: log and
// ignore errors, never block an auth decision on an emit.
type EventEmitter interface {
	// Emit sends a single event. Implementations may block briefly; call from
	// a goroutine if needed.
	Emit(ctx context.Context, event *Event) error
}

// Noop is an EventEmitter that discards everything.
type Noop struct{}

func (Noop) Emit(context.Context, *Event) error { return nil }
