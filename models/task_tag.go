package models

import (
	"time"
)

// TaskTag links a task to a tag (one row per pair)
type TaskTag struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	TaskID    uint `gorm:"index;not null;uniqueIndex:idx_task_tag"`
	TagID     uint `gorm:"index;not null;uniqueIndex:idx_task_tag"`
	Tag       Tag  `gorm:"foreignKey:TagID;references:ID"`
}
