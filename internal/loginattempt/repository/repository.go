// Package repository provides persistence for the login attempt audit trail
// and explicit account locks.
package repository

import (
	"context"
	"time"

	"rental-auth-service/internal/loginattempt/domain"
)

// Repository stores login attempts and account locks.
type Repository interface {
	// RecordAttempt appends one attempt to the audit trail.
	RecordAttempt(ctx context.Context, a *domain.LoginAttempt) error
	// CountFailuresSince counts failed attempts for email at or after since,
	// ignoring failures older than the most recent successful login. A
	// success therefore resets the forward-looking counter without touching
	// the audit rows.
	CountFailuresSince(ctx context.Context, email string, since time.Time) (int, error)
	// GetLock returns the explicit lock for email, or nil if none exists.
	GetLock(ctx context.Context, email string) (*domain.AccountLock, error)
	// UpsertLock creates or replaces the explicit lock for the email.
	UpsertLock(ctx context.Context, l *domain.AccountLock) error
	// DeleteLock removes the explicit lock for the email, if present.
	DeleteLock(ctx context.Context, email string) error
	// CleanupOldAttempts deletes audit rows older than the retention window.
	CleanupOldAttempts(ctx context.Context, retention time.Duration) (int64, error)
	// CleanupExpiredLocks deletes locks whose LockedUntil has passed.
	CleanupExpiredLocks(ctx context.Context) (int64, error)
}
