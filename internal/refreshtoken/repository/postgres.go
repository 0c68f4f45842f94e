package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rental-auth-service/internal/refreshtoken/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a refresh token repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordColumns = `id, user_id, token_hash, ip_address, user_agent, device,
	expires_at, is_revoked, revoked_at, revoked_reason, last_used_at, created_at`

// Store persists a new record. The record must have ID and TokenHash set.
func (r *PostgresRepository) Store(ctx context.Context, rec *domain.RefreshTokenRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, rec.UserID, rec.TokenHash, rec.IPAddress, rec.UserAgent, rec.Device,
		rec.ExpiresAt, rec.IsRevoked, timeToNullTime(rec.RevokedAt),
		nullIfEmpty(rec.RevokedReason), timeToNullTime(rec.LastUsedAt), rec.CreatedAt)
	return err
}

// FindValid returns the non-revoked, non-expired record with the given token hash, or nil.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) FindValid(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM refresh_tokens
		WHERE token_hash = $1 AND NOT is_revoked AND expires_at > now()`, tokenHash)
	return scanRecord(row)
}

// FindByHash returns the record with the given token hash in any state, or nil.
func (r *PostgresRepository) FindByHash(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	return scanRecord(row)
}

// ListActiveForUser returns the user's non-revoked, non-expired records, newest first.
func (r *PostgresRepository) ListActiveForUser(ctx context.Context, userID string) ([]*domain.RefreshTokenRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM refresh_tokens
		WHERE user_id = $1 AND NOT is_revoked AND expires_at > now()
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.RefreshTokenRecord
	for rows.Next() {
		rec, err := scanRecordFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Revoke marks the record revoked with the given reason.
func (r *PostgresRepository) Revoke(ctx context.Context, id, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET is_revoked = TRUE, revoked_at = $2, revoked_reason = $3
		WHERE id = $1 AND NOT is_revoked`,
		id, time.Now().UTC(), reason)
	return err
}

// RevokeAllForUser revokes every active record for the user. Returns the number of records revoked.
func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID, reason string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET is_revoked = TRUE, revoked_at = $2, revoked_reason = $3
		WHERE user_id = $1 AND NOT is_revoked`,
		userID, time.Now().UTC(), reason)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RevokeAllExcept revokes every active record for the user except keepID.
func (r *PostgresRepository) RevokeAllExcept(ctx context.Context, userID, keepID, reason string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET is_revoked = TRUE, revoked_at = $3, revoked_reason = $4
		WHERE user_id = $1 AND id <> $2 AND NOT is_revoked`,
		userID, keepID, time.Now().UTC(), reason)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Rotate atomically revokes the old record and stores the new one in a single
// transaction. The revoke only matches an unrevoked row; if it matches
// nothing, a concurrent rotation already claimed the token and
// ErrAlreadyRotated is returned with nothing stored.
func (r *PostgresRepository) Rotate(ctx context.Context, oldID string, newRec *domain.RefreshTokenRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET is_revoked = TRUE, revoked_at = $2, revoked_reason = $3
		WHERE id = $1 AND NOT is_revoked`,
		oldID, time.Now().UTC(), domain.ReasonRotated)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyRotated
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO refresh_tokens (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		newRec.ID, newRec.UserID, newRec.TokenHash, newRec.IPAddress, newRec.UserAgent, newRec.Device,
		newRec.ExpiresAt, newRec.IsRevoked, timeToNullTime(newRec.RevokedAt),
		nullIfEmpty(newRec.RevokedReason), timeToNullTime(newRec.LastUsedAt), newRec.CreatedAt)
	if err != nil {
		return fmt.Errorf("rotate insert: %w", err)
	}
	return tx.Commit()
}

// UpdateLastUsed sets the record's last-used timestamp.
func (r *PostgresRepository) UpdateLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}

// CleanupExpired deletes records whose expiry is older than the retention window.
func (r *PostgresRepository) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at < $1`,
		time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CleanupOldRevoked deletes revoked records older than the retention window.
func (r *PostgresRepository) CleanupOldRevoked(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE is_revoked AND revoked_at < $1`,
		time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row *sql.Row) (*domain.RefreshTokenRecord, error) {
	rec, err := scanRecordFromRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func scanRecordFromRows(s rowScanner) (*domain.RefreshTokenRecord, error) {
	var rec domain.RefreshTokenRecord
	var revokedAt, lastUsedAt sql.NullTime
	var revokedReason sql.NullString
	err := s.Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.IPAddress, &rec.UserAgent, &rec.Device,
		&rec.ExpiresAt, &rec.IsRevoked, &revokedAt, &revokedReason, &lastUsedAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.RevokedAt = nullTimeToPtr(revokedAt)
	rec.LastUsedAt = nullTimeToPtr(lastUsedAt)
	if revokedReason.Valid {
		rec.RevokedReason = revokedReason.String
	}
	return &rec, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
