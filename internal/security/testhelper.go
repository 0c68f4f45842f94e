package security

import "time"

// NewTestTokenCodec returns a TokenCodec with fixed test secrets and short
// TTLs. For use in tests only.
func NewTestTokenCodec() (*TokenCodec, error) {
	return NewTokenCodec(
		TokenConfig{
			Secret:   []byte("test-access-secret"),
			Issuer:   "test-auth",
			Audience: "test-api",
			TTL:      15 * time.Minute,
		},
		TokenConfig{
			Secret:   []byte("test-refresh-secret"),
			Issuer:   "test-auth",
			Audience: "test-refresh",
			TTL:      7 * 24 * time.Hour,
		},
	)
}
