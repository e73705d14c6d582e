package model

import (
	"time"
)

// RefreshToken is the server-side record of an opaque refresh token.
// At most one row exists per user.
type RefreshToken struct {
	Token     string    `gorm:"primaryKey;size:36" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// Expired reports whether the token can no longer be exchanged at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
