package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rental-auth-service/internal/loginattempt/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a login attempt repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// RecordAttempt appends one attempt to the audit trail.
func (r *PostgresRepository) RecordAttempt(ctx context.Context, a *domain.LoginAttempt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO login_attempts (id, email, ip_address, success, failure_reason, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Email, a.IPAddress, a.Success,
		sql.NullString{String: a.FailureReason, Valid: a.FailureReason != ""}, a.AttemptedAt)
	return err
}

// CountFailuresSince counts failed attempts for email at or after since,
// ignoring failures older than the most recent successful login.
func (r *PostgresRepository) CountFailuresSince(ctx context.Context, email string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM login_attempts
		WHERE email = $1 AND NOT success AND attempted_at >= $2
		AND attempted_at > COALESCE(
			(SELECT max(attempted_at) FROM login_attempts WHERE email = $1 AND success),
			'-infinity'::timestamptz)`,
		email, since).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetLock returns the explicit lock for email, or nil if none exists.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetLock(ctx context.Context, email string) (*domain.AccountLock, error) {
	var l domain.AccountLock
	err := r.db.QueryRowContext(ctx, `
		SELECT email, reason, locked_until, created_at
		FROM account_locks WHERE email = $1`, email).
		Scan(&l.Email, &l.Reason, &l.LockedUntil, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// UpsertLock creates or replaces the explicit lock for the email.
func (r *PostgresRepository) UpsertLock(ctx context.Context, l *domain.AccountLock) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account_locks (email, reason, locked_until, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET reason = EXCLUDED.reason, locked_until = EXCLUDED.locked_until, created_at = EXCLUDED.created_at`,
		l.Email, l.Reason, l.LockedUntil, l.CreatedAt)
	return err
}

// DeleteLock removes the explicit lock for the email, if present.
func (r *PostgresRepository) DeleteLock(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM account_locks WHERE email = $1`, email)
	return err
}

// CleanupOldAttempts deletes audit rows older than the retention window.
func (r *PostgresRepository) CleanupOldAttempts(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM login_attempts WHERE attempted_at < $1`,
		time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CleanupExpiredLocks deletes locks whose LockedUntil has passed.
func (r *PostgresRepository) CleanupExpiredLocks(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM account_locks WHERE locked_until < $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
