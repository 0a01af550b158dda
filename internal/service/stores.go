package service

import (
	"context"
	"time"

	"campaigndash/internal/models"
)

// UserStore is the persistence AuthService needs for accounts.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	MarkVerified(ctx context.Context, id string) error
	DeleteByEmail(ctx context.Context, email string) error
}

// SessionStore is the persistence AuthService needs for refresh sessions.
type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	Rotate(ctx context.Context, id string, oldHash, newHash []byte, expiresAt time.Time) error
	CountByUser(ctx context.Context, userID string) (int, error)
	DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	Touch(ctx context.Context, sessionID string, ip string, userAgent string) error
}

// Limiter throttles repeated login attempts.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}
