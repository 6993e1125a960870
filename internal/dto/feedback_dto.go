package dto

import (
	"time"

	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// FeedbackSendRequest describes a standalone feedback message from staff.
type FeedbackSendRequest struct {
	RecipientID     uint   `json:"recipient_id" validate:"required,gt=0"`
	Message         string `json:"message" validate:"required,min=1"`
	RelatedItemType string `json:"related_item_type" validate:"omitempty,oneof=otj_log evidence general"`
	RelatedItemID   uint   `json:"related_item_id" validate:"omitempty,gt=0"`
}

// FeedbackResponse is returned to API clients when viewing feedback.
type FeedbackResponse struct {
	ID              uint      `json:"id"`
	SenderID        uint      `json:"sender_id"`
	RecipientID     uint      `json:"recipient_id"`
	Message         string    `json:"message"`
	RelatedItemType string    `json:"related_item_type"`
	RelatedItemID   uint      `json:"related_item_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewFeedbackResponse converts a Feedback model into a DTO.
func NewFeedbackResponse(model models.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:              model.ID,
		SenderID:        model.SenderID,
		RecipientID:     model.RecipientID,
		Message:         model.Message,
		RelatedItemType: model.RelatedItemType,
		RelatedItemID:   model.RelatedItemID,
		CreatedAt:       model.CreatedAt,
	}
}

// NewFeedbackResponseSlice converts feedback models into DTOs.
func NewFeedbackResponseSlice(items []models.Feedback) []FeedbackResponse {
	responses := make([]FeedbackResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewFeedbackResponse(item))
	}

	return responses
}
