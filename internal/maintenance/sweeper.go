// Package maintenance runs the periodic cleanup sweeps: expired and
// long-revoked refresh tokens, expired blacklist entries, expired account
// locks, and old login attempt audit rows.
package maintenance

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// TokenStore is the refresh token cleanup surface.
type TokenStore interface {
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
	CleanupOldRevoked(ctx context.Context, retention time.Duration) (int64, error)
}

// BlacklistStore is the blacklist cleanup surface. Entries past their token's
// natural expiry are safe to drop; the signature check rejects those anyway.
type BlacklistStore interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// AttemptStore is the login attempt and lock cleanup surface.
type AttemptStore interface {
	CleanupOldAttempts(ctx context.Context, retention time.Duration) (int64, error)
	CleanupExpiredLocks(ctx context.Context) (int64, error)
}

// Sweeper runs cleanup passes on an interval and reports deleted row counts
// as metrics.
type Sweeper struct {
	tokens    TokenStore
	blacklist BlacklistStore
	attempts  AttemptStore

	interval         time.Duration
	revokedRetention time.Duration
	attemptRetention time.Duration

	rowsDeleted metric.Int64Counter
	sweepErrors metric.Int64Counter
}

// NewSweeper builds a Sweeper. interval must be positive; retentions bound how
// long dead rows linger before deletion.
func NewSweeper(tokens TokenStore, blacklist BlacklistStore, attempts AttemptStore,
	interval, revokedRetention, attemptRetention time.Duration) *Sweeper {

	meter := otel.Meter("rental-auth.maintenance")
	rowsDeleted, err := meter.Int64Counter("auth_sweep_rows_deleted_total",
		metric.WithDescription("Rows deleted by maintenance sweeps, by table."))
	if err != nil {
		log.Printf("maintenance: counter init: %v", err)
	}
	sweepErrors, err := meter.Int64Counter("auth_sweep_errors_total",
		metric.WithDescription("Failed sweep steps, by table."))
	if err != nil {
		log.Printf("maintenance: counter init: %v", err)
	}

	return &Sweeper{
		tokens:           tokens,
		blacklist:        blacklist,
		attempts:         attempts,
		interval:         interval,
		revokedRetention: revokedRetention,
		attemptRetention: attemptRetention,
		rowsDeleted:      rowsDeleted,
		sweepErrors:      sweepErrors,
	}
}

// Run sweeps once immediately, then on every interval tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one cleanup pass. Each step is independent; a failing step is
// logged and counted, the rest still run.
func (s *Sweeper) Sweep(ctx context.Context) {
	s.step(ctx, "refresh_tokens_expired", func() (int64, error) {
		return s.tokens.CleanupExpired(ctx, s.revokedRetention)
	})
	s.step(ctx, "refresh_tokens_revoked", func() (int64, error) {
		return s.tokens.CleanupOldRevoked(ctx, s.revokedRetention)
	})
	s.step(ctx, "blacklisted_tokens", func() (int64, error) {
		return s.blacklist.CleanupExpired(ctx)
	})
	s.step(ctx, "login_attempts", func() (int64, error) {
		return s.attempts.CleanupOldAttempts(ctx, s.attemptRetention)
	})
	s.step(ctx, "account_locks", func() (int64, error) {
		return s.attempts.CleanupExpiredLocks(ctx)
	})
}

func (s *Sweeper) step(ctx context.Context, table string, fn func() (int64, error)) {
	attrs := metric.WithAttributes(attribute.String("table", table))
	n, err := fn()
	if err != nil {
		log.Printf("maintenance: sweep %s: %v", table, err)
		if s.sweepErrors != nil {
			s.sweepErrors.Add(ctx, 1, attrs)
		}
		return
	}
	if n > 0 {
		log.Printf("maintenance: sweep %s: deleted %d rows", table, n)
	}
	if s.rowsDeleted != nil {
		s.rowsDeleted.Add(ctx, n, attrs)
	}
}
