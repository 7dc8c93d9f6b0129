package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/petroslamb/movierama/internal/store"
)

// SessionsRepository keeps login sessions in Postgres.
type SessionsRepository struct {
	pool *pgxpool.Pool
}

// Save stores a session token for userID that expires after ttl. Expired
// sessions are purged in the same transaction.
func (r *SessionsRepository) Save(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	return store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`); err != nil {
			return fmt.Errorf("purge sessions: %w", err)
		}
		_, err := tx.Exec(ctx, `
            INSERT INTO sessions (token, user_id, expires_at)
            VALUES ($1, $2, $3)
        `, token, userID, time.Now().Add(ttl))
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

// Load resolves a token to its user. ok is false for unknown or expired tokens.
func (r *SessionsRepository) Load(ctx context.Context, token string) (int64, bool, error) {
	var userID int64
	err := r.pool.QueryRow(ctx, `
        SELECT user_id FROM sessions WHERE token = $1 AND expires_at > now()
    `, token).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return userID, true, nil
}

// Delete forgets a session token. Unknown tokens are ignored.
func (r *SessionsRepository) Delete(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}
