package dto

import (
	"time"

	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// TaskCreateRequest describes the payload for assigning a task.
type TaskCreateRequest struct {
	AssignedToID uint       `json:"assigned_to_id" validate:"required,gt=0"`
	Title        string     `json:"title" validate:"required,min=3,max=255"`
	Details      string     `json:"details" validate:"omitempty,max=5000"`
	DueDate      *time.Time `json:"due_date"`
}

// TaskUpdateRequest updates an existing task.
type TaskUpdateRequest struct {
	Title     *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Details   *string    `json:"details" validate:"omitempty,max=5000"`
	DueDate   *time.Time `json:"due_date"`
	Completed *bool      `json:"completed"`
}

// TaskFilter describes query string filters for listing tasks.
type TaskFilter struct {
	AssignedToID *uint `query:"assigned_to_id"`
	Completed    *bool `query:"completed"`
}

// TaskResponse is returned to API clients when viewing tasks.
type TaskResponse struct {
	ID           uint       `json:"id"`
	AssignedToID uint       `json:"assigned_to_id"`
	CreatedByID  uint       `json:"created_by_id"`
	Title        string     `json:"title"`
	Details      string     `json:"details"`
	DueDate      *time.Time `json:"due_date"`
	Completed    bool       `json:"completed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewTaskResponse converts a Task model into a DTO.
func NewTaskResponse(model models.Task) TaskResponse {
	return TaskResponse{
		ID:           model.ID,
		AssignedToID: model.AssignedToID,
		CreatedByID:  model.CreatedByID,
		Title:        model.Title,
		Details:      model.Details,
		DueDate:      model.DueDate,
		Completed:    model.Completed,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewTaskResponseSlice converts task models into DTOs.
func NewTaskResponseSlice(tasks []models.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, NewTaskResponse(task))
	}

	return responses
}
