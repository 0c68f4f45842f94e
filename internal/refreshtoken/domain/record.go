package domain

import "time"

// RefreshTokenRecord is the persisted form of an issued refresh token.
// TokenHash is the SHA-256 of the raw token; the raw value is never stored.
type RefreshTokenRecord struct {
	ID            string
	UserID        string
	TokenHash     string
	IPAddress     string
	UserAgent     string
	Device        string
	ExpiresAt     time.Time
	IsRevoked     bool
	RevokedAt     *time.Time // nil when not revoked
	RevokedReason string
	LastUsedAt    *time.Time
	CreatedAt     time.Time
}

// Valid reports whether the record can still authenticate a refresh at the given time.
func (r *RefreshTokenRecord) Valid(at time.Time) bool {
	return r != nil && !r.IsRevoked && at.Before(r.ExpiresAt)
}

// Revocation reasons recorded on refresh token records.
const (
	ReasonRotated        = "rotated"
	ReasonLogout         = "logout"
	ReasonLogoutAll      = "logout_all_devices"
	ReasonPasswordChange = "password_change"
	ReasonReuseDetected  = "token_reuse_detected"
)
