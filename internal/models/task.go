package models

import "time"

// Task is a piece of work set for a learner by staff.
type Task struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignedToID uint       `gorm:"not null;index" json:"assigned_to_id"`
	CreatedByID  uint       `gorm:"not null" json:"created_by_id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Details      string     `gorm:"type:text" json:"details"`
	DueDate      *time.Time `json:"due_date"`
	Completed    bool       `gorm:"not null;default:false" json:"completed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// OwnerID identifies the assignee for access checks.
func (t Task) OwnerID() uint {
	return t.AssignedToID
}
