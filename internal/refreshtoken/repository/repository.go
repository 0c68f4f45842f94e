// Package repository provides persistence for refresh token records.
// All lookups are keyed by the hash of the raw token, never the raw value.
package repository

import (
	"context"
	"errors"
	"time"

	"rental-auth-service/internal/refreshtoken/domain"
)

// ErrAlreadyRotated is returned by Rotate when the old record was revoked
// before the rotation could claim it. Exactly one of two concurrent rotations
// of the same token observes this; callers treat it as a reuse signal.
var ErrAlreadyRotated = errors.New("refresh token already rotated")

// Repository is the refresh token store.
type Repository interface {
	// Store persists a new record. The record must have ID and TokenHash set.
	Store(ctx context.Context, rec *domain.RefreshTokenRecord) error
	// FindValid returns the non-revoked, non-expired record with the given
	// token hash, or nil. The single query encodes the validity invariant.
	FindValid(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error)
	// FindByHash returns the record with the given token hash in any state, or
	// nil. Used to distinguish "revoked and presented again" from "never existed".
	FindByHash(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error)
	// ListActiveForUser returns the user's non-revoked, non-expired records.
	ListActiveForUser(ctx context.Context, userID string) ([]*domain.RefreshTokenRecord, error)
	// Revoke marks the record revoked with the given reason.
	Revoke(ctx context.Context, id, reason string) error
	// RevokeAllForUser revokes every active record for the user. Returns the
	// number of records revoked.
	RevokeAllForUser(ctx context.Context, userID, reason string) (int64, error)
	// RevokeAllExcept revokes every active record for the user except keepID.
	RevokeAllExcept(ctx context.Context, userID, keepID, reason string) (int64, error)
	// Rotate atomically revokes the old record (reason "rotated") and stores
	// the new one. Returns ErrAlreadyRotated if the old record was no longer
	// unrevoked, in which case the new record is not stored.
	Rotate(ctx context.Context, oldID string, newRec *domain.RefreshTokenRecord) error
	// UpdateLastUsed sets the record's last-used timestamp.
	UpdateLastUsed(ctx context.Context, id string, at time.Time) error
	// CleanupExpired deletes records whose expiry is older than the retention
	// window. Returns the number of rows deleted.
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
	// CleanupOldRevoked deletes revoked records older than the retention
	// window. Returns the number of rows deleted.
	CleanupOldRevoked(ctx context.Context, retention time.Duration) (int64, error)
}
