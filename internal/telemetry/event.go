// Package telemetry defines security events emitted by the auth core and the
// EventEmitter interface its backends implement (Kafka, OTel logs, no-op).
package telemetry

import "time"

// EventType identifies a security event.
type EventType string

const (
	EventLoginSucceeded     EventType = "login_succeeded"
	EventLoginFailed        EventType = "login_failed"
	EventAccountLocked      EventType = "account_locked"
	EventTokenRefreshed     EventType = "token_refreshed"
	EventTokenReuseDetected EventType = "token_reuse_detected"
	EventSessionsRevoked    EventType = "sessions_revoked"
	EventLogout             EventType = "logout"
	EventPasswordChanged    EventType = "password_changed"
)

// Event is one security event. UserID and Email may be empty depending on the
// event type; Detail is a short human-readable note, never a secret.
type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
