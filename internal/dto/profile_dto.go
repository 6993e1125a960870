package dto

import (
	"time"

	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// ProfileCreateRequest provisions a profile for a learner account.
type ProfileCreateRequest struct {
	LearnerID uint `json:"learner_id" validate:"required,gt=0"`
}

// AssociationPatchRequest reassigns staff links on a learner profile. Nil
// slots are left untouched; a set slot replaces the existing link.
type AssociationPatchRequest struct {
	TutorID            *uint `json:"tutor_id" validate:"omitempty,gt=0"`
	IQAID              *uint `json:"iqa_id" validate:"omitempty,gt=0"`
	TrainingProviderID *uint `json:"training_provider_id" validate:"omitempty,gt=0"`
}

// ProfileResponse is returned to API clients when viewing a learner profile.
type ProfileResponse struct {
	ID                 uint      `json:"id"`
	LearnerID          uint      `json:"learner_id"`
	TutorID            *uint     `json:"tutor_id"`
	IQAID              *uint     `json:"iqa_id"`
	TrainingProviderID *uint     `json:"training_provider_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewProfileResponse converts a LearnerProfile model into a DTO.
func NewProfileResponse(model models.LearnerProfile) ProfileResponse {
	return ProfileResponse{
		ID:                 model.ID,
		LearnerID:          model.LearnerID,
		TutorID:            model.TutorID,
		IQAID:              model.IQAID,
		TrainingProviderID: model.TrainingProviderID,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}
