package models

import "time"

// OtjLog records on-the-job training hours logged by a learner, together
// with the two-tier verification trail applied by reviewers.
type OtjLog struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	LearnerID           uint       `gorm:"not null;index" json:"learner_id"`
	Hours               float64    `gorm:"not null" json:"hours"`
	ActivityDate        time.Time  `json:"activity_date"`
	Description         string     `gorm:"type:text" json:"description"`
	Status              string     `gorm:"size:32;not null" json:"status"`
	VerifierID          *uint      `json:"verifier_id"`
	VerificationDate    *time.Time `json:"verification_date"`
	IQAVerifierID       *uint      `gorm:"column:iqa_verifier_id" json:"iqa_verifier_id"`
	IQAVerificationDate *time.Time `gorm:"column:iqa_verification_date" json:"iqa_verification_date"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

const (
	// OtjStatusDraft means the entry is still editable by its owner.
	OtjStatusDraft = "draft"
	// OtjStatusSubmitted means the entry awaits first-tier verification.
	OtjStatusSubmitted = "submitted"
	// OtjStatusApproved means a first-tier verifier accepted the entry.
	OtjStatusApproved = "approved"
	// OtjStatusRejected is terminal; the entry was refused with feedback.
	OtjStatusRejected = "rejected"
)

// OwnerID identifies the learner who logged the hours.
func (l OtjLog) OwnerID() uint {
	return l.LearnerID
}

// IsIQAVerified reports whether the second-tier IQA stamp has been applied.
func (l OtjLog) IsIQAVerified() bool {
	return l.Status == OtjStatusApproved && l.IQAVerifierID != nil
}
