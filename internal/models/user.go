package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	IsGoogle     bool
	Verified     bool
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword is false for accounts created through the identity provider.
func (u User) HasPassword() bool {
	return len(u.PasswordHash) > 0
}

type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash []byte
	Remember         bool
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
