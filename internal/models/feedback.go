package models

import "time"

// Feedback is an immutable message from a reviewer to a learner. Every
// rejection or revision request produces exactly one feedback record
// referencing the item it concerns; staff may also send standalone feedback.
type Feedback struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SenderID        uint      `gorm:"not null" json:"sender_id"`
	RecipientID     uint      `gorm:"not null;index" json:"recipient_id"`
	Message         string    `gorm:"type:text;not null" json:"message"`
	RelatedItemType string    `gorm:"size:32" json:"related_item_type"`
	RelatedItemID   uint      `json:"related_item_id"`
	CreatedAt       time.Time `json:"created_at"`
}

const (
	// FeedbackItemOtjLog marks feedback attached to an OTJ log entry.
	FeedbackItemOtjLog = "otj_log"
	// FeedbackItemEvidence marks feedback attached to an evidence item.
	FeedbackItemEvidence = "evidence"
	// FeedbackItemGeneral marks standalone feedback not tied to a submission.
	FeedbackItemGeneral = "general"
)

// OwnerID identifies the recipient for access checks.
func (f Feedback) OwnerID() uint {
	return f.RecipientID
}
