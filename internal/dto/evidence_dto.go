package dto

import (
	"time"

	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// EvidenceCreateRequest describes the payload for creating an evidence item.
type EvidenceCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	FileURL     string `json:"file_url" validate:"omitempty,url,max=512"`
}

// EvidenceUpdateRequest updates content fields on an unlocked item.
type EvidenceUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	FileURL     *string `json:"file_url" validate:"omitempty,url,max=512"`
}

// EvidenceRevisionRequest carries the mandatory feedback for a revision request.
type EvidenceRevisionRequest struct {
	Message string `json:"message" validate:"required,min=1"`
}

// EvidenceFilter describes query string filters for listing evidence.
type EvidenceFilter struct {
	LearnerID *uint   `query:"learner_id"`
	Status    *string `query:"status" validate:"omitempty,oneof=draft submitted in_review approved needs_revision"`
}

// EvidenceResponse is returned to API clients when viewing evidence items.
type EvidenceResponse struct {
	ID          uint       `json:"id"`
	LearnerID   uint       `json:"learner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	FileURL     string     `json:"file_url"`
	Status      string     `json:"status"`
	ReviewerID  *uint      `json:"reviewer_id"`
	ApprovedAt  *time.Time `json:"approved_at"`
	Locked      bool       `json:"locked"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewEvidenceResponse converts an Evidence model into a DTO.
func NewEvidenceResponse(model models.Evidence) EvidenceResponse {
	return EvidenceResponse{
		ID:          model.ID,
		LearnerID:   model.LearnerID,
		Title:       model.Title,
		Description: model.Description,
		FileURL:     model.FileURL,
		Status:      model.Status,
		ReviewerID:  model.ReviewerID,
		ApprovedAt:  model.ApprovedAt,
		Locked:      model.IsLocked(),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewEvidenceResponseSlice converts evidence models into DTOs.
func NewEvidenceResponseSlice(items []models.Evidence) []EvidenceResponse {
	responses := make([]EvidenceResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewEvidenceResponse(item))
	}

	return responses
}
