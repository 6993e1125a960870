package dto

import (
	"time"

	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// OtjLogCreateRequest describes the payload for logging training hours.
type OtjLogCreateRequest struct {
	Hours        float64   `json:"hours" validate:"required,gt=0,lte=24"`
	ActivityDate time.Time `json:"activity_date" validate:"required"`
	Description  string    `json:"description" validate:"omitempty,max=2000"`
}

// OtjLogUpdateRequest updates a draft entry's content fields.
type OtjLogUpdateRequest struct {
	Hours        *float64   `json:"hours" validate:"omitempty,gt=0,lte=24"`
	ActivityDate *time.Time `json:"activity_date"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
}

// OtjRejectRequest carries the mandatory feedback accompanying a rejection.
type OtjRejectRequest struct {
	Message string `json:"message" validate:"required,min=1"`
}

// OtjLogFilter describes query string filters for listing entries.
type OtjLogFilter struct {
	LearnerID *uint   `query:"learner_id"`
	Status    *string `query:"status" validate:"omitempty,oneof=draft submitted approved rejected"`
}

// OtjLogResponse is returned to API clients when viewing OTJ logs.
type OtjLogResponse struct {
	ID                  uint       `json:"id"`
	LearnerID           uint       `json:"learner_id"`
	Hours               float64    `json:"hours"`
	ActivityDate        time.Time  `json:"activity_date"`
	Description         string     `json:"description"`
	Status              string     `json:"status"`
	VerifierID          *uint      `json:"verifier_id"`
	VerificationDate    *time.Time `json:"verification_date"`
	IQAVerifierID       *uint      `json:"iqa_verifier_id"`
	IQAVerificationDate *time.Time `json:"iqa_verification_date"`
	IQAVerified         bool       `json:"iqa_verified"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NewOtjLogResponse converts an OtjLog model into a DTO.
func NewOtjLogResponse(model models.OtjLog) OtjLogResponse {
	return OtjLogResponse{
		ID:                  model.ID,
		LearnerID:           model.LearnerID,
		Hours:               model.Hours,
		ActivityDate:        model.ActivityDate,
		Description:         model.Description,
		Status:              model.Status,
		VerifierID:          model.VerifierID,
		VerificationDate:    model.VerificationDate,
		IQAVerifierID:       model.IQAVerifierID,
		IQAVerificationDate: model.IQAVerificationDate,
		IQAVerified:         model.IsIQAVerified(),
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

// NewOtjLogResponseSlice converts OTJ log models into DTOs.
func NewOtjLogResponseSlice(logs []models.OtjLog) []OtjLogResponse {
	responses := make([]OtjLogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, NewOtjLogResponse(log))
	}

	return responses
}
