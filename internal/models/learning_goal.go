package models

import "time"

// LearningGoal is a development target a learner works toward.
type LearningGoal struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	LearnerID   uint       `gorm:"not null;index" json:"learner_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	TargetDate  *time.Time `json:"target_date"`
	Achieved    bool       `gorm:"not null;default:false" json:"achieved"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// OwnerID identifies the learner pursuing the goal.
func (g LearningGoal) OwnerID() uint {
	return g.LearnerID
}
