package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campaigndash/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// selectSession lists columns in models.Session field order for RowToStructByPos.
const selectSession = `
	SELECT id, user_id, refresh_token_hash, remember, ip_address, user_agent,
	       created_at, last_seen_at, expires_at
	FROM refresh_sessions`

// SessionRepository stores one row per signed-in device, keyed by the hash
// of its current refresh token.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s models.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_sessions (id, user_id, refresh_token_hash, remember, ip_address, user_agent, expires_at)
		VALUES (@id, @user_id, @hash, @remember, @ip, @ua, @expires_at)`,
		pgx.NamedArgs{
			"id":         s.ID,
			"user_id":    s.UserID,
			"hash":       s.RefreshTokenHash,
			"remember":   s.Remember,
			"ip":         s.IPAddress,
			"ua":         s.UserAgent,
			"expires_at": s.ExpiresAt,
		})
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Rotate replaces the refresh hash only while oldHash is still current, so a
// refresh token can be redeemed at most once.
func (r *SessionRepository) Rotate(ctx context.Context, id string, oldHash, newHash []byte, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_sessions
		SET refresh_token_hash = @new, expires_at = @expires_at, last_seen_at = NOW()
		WHERE id = @id AND refresh_token_hash = @old`,
		pgx.NamedArgs{"id": id, "old": oldHash, "new": newHash, "expires_at": expiresAt})
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM refresh_sessions WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// DeleteOldestSessions keeps the keepLatest most recently used sessions of a user.
func (r *SessionRepository) DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM refresh_sessions
		WHERE id IN (
			SELECT id FROM refresh_sessions
			WHERE user_id = $1
			ORDER BY last_seen_at DESC
			OFFSET $2
		)`, userID, keepLatest)
	if err != nil {
		return fmt.Errorf("trim sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (models.Session, error) {
	return r.one(ctx, selectSession+` WHERE id = $1`, id)
}

func (r *SessionRepository) FindByRefreshHash(ctx context.Context, hash []byte) (models.Session, error) {
	return r.one(ctx, selectSession+` WHERE refresh_token_hash = $1`, hash)
}

func (r *SessionRepository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpired is run by the cleanup task.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Touch records activity; blank ip or user agent keep the stored value.
func (r *SessionRepository) Touch(ctx context.Context, id, ip, userAgent string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE refresh_sessions
		SET last_seen_at = NOW(),
		    ip_address = COALESCE(NULLIF(@ip, ''), ip_address),
		    user_agent = COALESCE(NULLIF(@ua, ''), user_agent)
		WHERE id = @id`,
		pgx.NamedArgs{"id": id, "ip": ip, "ua": userAgent})
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r *SessionRepository) one(ctx context.Context, query string, arg any) (models.Session, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return models.Session{}, fmt.Errorf("query session: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[models.Session])
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("scan session: %w", err)
	}
	return s, nil
}
