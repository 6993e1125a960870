package models

import "time"

// LearnerProfile links a learner to the staff responsible for them. Each
// association slot holds at most one actor at a time; assigning a new one
// replaces the previous link.
type LearnerProfile struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	LearnerID          uint      `gorm:"uniqueIndex;not null" json:"learner_id"`
	TutorID            *uint     `json:"tutor_id"`
	IQAID              *uint     `json:"iqa_id"`
	TrainingProviderID *uint     `json:"training_provider_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// OwnerID identifies the learner the profile belongs to.
func (p LearnerProfile) OwnerID() uint {
	return p.LearnerID
}
