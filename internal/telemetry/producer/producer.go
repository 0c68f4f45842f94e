// Package producer emits security events to Kafka.
package producer

import (
	"context"

	"rental-auth-service/internal/telemetry"
)

// Producer emits security events to an external broker. Callers use it
// best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; call from a goroutine if needed.
	Emit(ctx context.Context, event *telemetry.Event) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
