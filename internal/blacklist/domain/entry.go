package domain

import "time"

// BlacklistEntry marks an access token rejected before its natural expiry.
// TokenHash is the SHA-256 of the raw token. ExpiresAt mirrors the token's
// own exp claim: once that passes, signature verification rejects the token
// anyway and the entry can be swept.
type BlacklistEntry struct {
	TokenHash string
	UserID    string
	Reason    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Blacklist reasons.
const (
	ReasonLogout         = "logout"
	ReasonForcedRevoke   = "forced_revoke"
	ReasonPasswordChange = "password_change"
)
