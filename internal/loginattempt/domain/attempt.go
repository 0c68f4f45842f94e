package domain

import "time"

// LoginAttempt is one row in the append-only login audit trail. Rows are
// never rewritten; lock state is derived from them plus explicit locks.
type LoginAttempt struct {
	ID            string
	Email         string
	IPAddress     string
	Success       bool
	FailureReason string
	AttemptedAt   time.Time
}

// AccountLock is an explicit, timed lock on an email. It overrides the
// derived window count once a threshold is crossed and auto-expires.
type AccountLock struct {
	Email       string
	Reason      string
	LockedUntil time.Time
	CreatedAt   time.Time
}

// Active reports whether the lock is still in force at the given time.
func (l *AccountLock) Active(at time.Time) bool {
	return l != nil && at.Before(l.LockedUntil)
}

// Failure reasons recorded on login attempts.
const (
	FailureBadCredentials = "bad_credentials"
	FailureAccountLocked  = "account_locked"
	FailureInactive       = "account_inactive"
)
