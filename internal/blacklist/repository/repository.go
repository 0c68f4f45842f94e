// Package repository provides the access token blacklist store. The store is
// an injected abstraction so multiple service instances share revocation
// state; it is never an in-process set.
package repository

import (
	"context"

	"rental-auth-service/internal/blacklist/domain"
)

// Repository is the access token blacklist.
type Repository interface {
	// Add records the entry. Adding the same token hash twice is a no-op.
	Add(ctx context.Context, e *domain.BlacklistEntry) error
	// IsBlacklisted reports whether the token hash is currently blacklisted.
	IsBlacklisted(ctx context.Context, tokenHash string) (bool, error)
	// Remove drops the entry for the token hash, if present.
	Remove(ctx context.Context, tokenHash string) error
	// CleanupExpired deletes entries whose token expiry has passed. Returns
	// the number of rows deleted. Bounds store size independent of traffic.
	CleanupExpired(ctx context.Context) (int64, error)
}
