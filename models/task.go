package models

import (
	"time"
)

// Task statuses. Stored as plain strings; the schema layer rejects anything
// outside this set.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// Task represents a task belonging to a user
type Task struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Title       string    `gorm:"size:256;not null;index"`
	Description string    `gorm:"type:text;not null"`
	Status      string    `gorm:"size:32;default:pending;index"`
	UserID      uint      `gorm:"index;not null"`
	TaskTags    []TaskTag `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
