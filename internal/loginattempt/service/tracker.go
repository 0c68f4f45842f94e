// Package service implements the account security tracker: it records login
// attempts and computes lockout state from a sliding window of failures.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rental-auth-service/internal/loginattempt/domain"
	"rental-auth-service/internal/loginattempt/repository"
)

// Tracker gates logins. Lockout is a soft, auto-expiring throttle: an account
// is locked while an explicit lock is active or while the failed-attempt
// count in the trailing window meets the threshold.
type Tracker struct {
	repo      repository.Repository
	threshold int
	window    time.Duration
	lockFor   time.Duration
	now       func() time.Time
}

// NewTracker returns a Tracker over the given store. threshold is the failure
// count that locks the account, window the trailing period failures are
// counted over, and lockFor the duration of an explicit lock.
func NewTracker(repo repository.Repository, threshold int, window, lockFor time.Duration) *Tracker {
	return &Tracker{
		repo:      repo,
		threshold: threshold,
		window:    window,
		lockFor:   lockFor,
		now:       time.Now,
	}
}

// RecordAttempt appends one attempt to the audit trail. reason is recorded
// only for failures. Returns the failure count in the current window so the
// caller can decide whether the threshold was crossed.
func (t *Tracker) RecordAttempt(ctx context.Context, email, ip string, success bool, reason string) (int, error) {
	now := t.now().UTC()
	attempt := &domain.LoginAttempt{
		ID:          uuid.New().String(),
		Email:       email,
		IPAddress:   ip,
		Success:     success,
		AttemptedAt: now,
	}
	if !success {
		attempt.FailureReason = reason
	}
	if err := t.repo.RecordAttempt(ctx, attempt); err != nil {
		return 0, err
	}
	if success {
		return 0, nil
	}
	return t.repo.CountFailuresSince(ctx, email, now.Add(-t.window))
}

// IsLocked reports whether logins for email are currently refused, and for
// how much longer. True while an explicit lock is active or while the window
// failure count meets the threshold.
func (t *Tracker) IsLocked(ctx context.Context, email string) (bool, time.Duration, error) {
	now := t.now().UTC()
	lock, err := t.repo.GetLock(ctx, email)
	if err != nil {
		return false, 0, err
	}
	if lock.Active(now) {
		return true, lock.LockedUntil.Sub(now), nil
	}
	count, err := t.repo.CountFailuresSince(ctx, email, now.Add(-t.window))
	if err != nil {
		return false, 0, err
	}
	if count >= t.threshold {
		return true, t.window, nil
	}
	return false, 0, nil
}

// Lock places an explicit timed lock on the email. A zero duration uses the
// configured lock duration.
func (t *Tracker) Lock(ctx context.Context, email string, d time.Duration, reason string) error {
	if d <= 0 {
		d = t.lockFor
	}
	now := t.now().UTC()
	return t.repo.UpsertLock(ctx, &domain.AccountLock{
		Email:       email,
		Reason:      reason,
		LockedUntil: now.Add(d),
		CreatedAt:   now,
	})
}

// Unlock removes any explicit lock on the email. Audit rows are untouched, so
// a still-saturated failure window keeps the account locked until it slides.
func (t *Tracker) Unlock(ctx context.Context, email string) error {
	return t.repo.DeleteLock(ctx, email)
}

// Threshold returns the configured failure threshold.
func (t *Tracker) Threshold() int { return t.threshold }

// LockDuration returns the configured explicit lock duration.
func (t *Tracker) LockDuration() time.Duration { return t.lockFor }
