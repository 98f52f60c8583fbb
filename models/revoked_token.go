package models

import (
	"time"
)

// RevokedToken stores a hashed representation of a refresh token revoked at
// logout. Rows past ExpiresAt are dead weight and can be purged.
type RevokedToken struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint      `gorm:"index;not null"`
	TokenHash string    `gorm:"size:128;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
