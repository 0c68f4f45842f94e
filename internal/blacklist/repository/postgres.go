package repository

import (
	"context"
	"database/sql"
	"time"

	"rental-auth-service/internal/blacklist/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a blacklist repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add records the entry. Adding the same token hash twice is a no-op.
func (r *PostgresRepository) Add(ctx context.Context, e *domain.BlacklistEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blacklisted_tokens (token_hash, user_id, reason, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token_hash) DO NOTHING`,
		e.TokenHash, e.UserID, e.Reason, e.ExpiresAt, e.CreatedAt)
	return err
}

// IsBlacklisted reports whether the token hash is currently blacklisted.
// Entries past their expiry still count until the sweep removes them;
// verification rejects such tokens regardless.
func (r *PostgresRepository) IsBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM blacklisted_tokens WHERE token_hash = $1)`,
		tokenHash).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Remove drops the entry for the token hash, if present.
func (r *PostgresRepository) Remove(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM blacklisted_tokens WHERE token_hash = $1`, tokenHash)
	return err
}

// CleanupExpired deletes entries whose token expiry has passed.
func (r *PostgresRepository) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM blacklisted_tokens WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
