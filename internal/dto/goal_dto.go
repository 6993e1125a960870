package dto

import (
	"time"

	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// GoalCreateRequest describes the payload for creating a learning goal.
type GoalCreateRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Description string     `json:"description" validate:"omitempty,max=5000"`
	TargetDate  *time.Time `json:"target_date"`
}

// GoalUpdateRequest updates an existing learning goal.
type GoalUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	TargetDate  *time.Time `json:"target_date"`
	Achieved    *bool      `json:"achieved"`
}

// GoalFilter describes query string filters for listing goals.
type GoalFilter struct {
	LearnerID *uint `query:"learner_id"`
	Achieved  *bool `query:"achieved"`
}

// GoalResponse is returned to API clients when viewing learning goals.
type GoalResponse struct {
	ID          uint       `json:"id"`
	LearnerID   uint       `json:"learner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"target_date"`
	Achieved    bool       `json:"achieved"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewGoalResponse converts a LearningGoal model into a DTO.
func NewGoalResponse(model models.LearningGoal) GoalResponse {
	return GoalResponse{
		ID:          model.ID,
		LearnerID:   model.LearnerID,
		Title:       model.Title,
		Description: model.Description,
		TargetDate:  model.TargetDate,
		Achieved:    model.Achieved,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewGoalResponseSlice converts goal models into DTOs.
func NewGoalResponseSlice(goals []models.LearningGoal) []GoalResponse {
	responses := make([]GoalResponse, 0, len(goals))
	for _, goal := range goals {
		responses = append(responses, NewGoalResponse(goal))
	}

	return responses
}
