package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is the progress state of a task.
type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusDone       TaskStatus = "Done"
)

// Task belongs to a project. CompletedAt is set while Status is Done.
type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	ProjectID   uuid.UUID  `json:"project_id" gorm:"type:char(36);not null;index"`
	Name        string     `json:"name" gorm:"size:255;not null"`
	Description string     `json:"description" gorm:"type:text"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty" gorm:"type:char(36);index"`
	Status      TaskStatus `json:"status" gorm:"type:varchar(20);not null;default:'To Do'"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Assignee *User `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
}

// SetStatus moves the task to status and maintains CompletedAt.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	if status == TaskStatusDone && t.Status != TaskStatusDone {
		t.CompletedAt = &now
	}
	if status != TaskStatusDone {
		t.CompletedAt = nil
	}
	t.Status = status
}

// BeforeCreate sets UUID before creating the record.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
