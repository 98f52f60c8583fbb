package models

import (
	"time"
)

// Tag is a user-scoped label. Names are unique per user, not globally.
type Tag struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string    `gorm:"size:256;not null;index;uniqueIndex:idx_tag_name_user"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_tag_name_user"`
	TaskTags  []TaskTag `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
