package models

import (
	"time"
)

// User model. HashedPassword is a bcrypt hash; it doubles as the secret
// material for per-session response-key derivation, so changing the password
// invalidates keys handed out at earlier logins.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	FirstName      string `gorm:"size:256;not null;index"`
	LastName       string `gorm:"size:256;not null;index"`
	Email          string `gorm:"size:255;not null;uniqueIndex"`
	HashedPassword []byte `gorm:"not null"`
	IsActive       bool   `gorm:"default:true;not null"`
	LastLogin      time.Time
	Tasks          []Task `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tags           []Tag  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
