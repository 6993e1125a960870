package models

import "time"

// Evidence is a competency evidence submission owned by a learner and
// reviewed by elevated staff. Approval locks the content fields.
type Evidence struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	LearnerID   uint       `gorm:"not null;index" json:"learner_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	FileURL     string     `gorm:"size:512" json:"file_url"`
	Status      string     `gorm:"size:32;not null" json:"status"`
	ReviewerID  *uint      `json:"reviewer_id"`
	ApprovedAt  *time.Time `json:"approved_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const (
	// EvidenceStatusDraft means the item is editable and deletable by its owner.
	EvidenceStatusDraft = "draft"
	// EvidenceStatusSubmitted means the item awaits review.
	EvidenceStatusSubmitted = "submitted"
	// EvidenceStatusInReview means a reviewer has picked the item up.
	EvidenceStatusInReview = "in_review"
	// EvidenceStatusApproved is terminal and locks content mutation.
	EvidenceStatusApproved = "approved"
	// EvidenceStatusNeedsRevision returns the item to the owner for rework.
	EvidenceStatusNeedsRevision = "needs_revision"
)

// OwnerID identifies the submitting learner.
func (e Evidence) OwnerID() uint {
	return e.LearnerID
}

// IsLocked reports whether owner content edits are no longer permitted.
func (e Evidence) IsLocked() bool {
	return e.Status == EvidenceStatusApproved
}
