package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/models"
	"github.com/noah-isme/aptrack-go-api/internal/repository"
)

// ErrTaskNotFound indicates a task could not be found.
var ErrTaskNotFound = errors.New("task not found")

// TaskService manages tasks set for learners by staff.
type TaskService interface {
	List(ctx context.Context, actor authz.Actor, filter dto.TaskFilter) ([]dto.TaskResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.TaskResponse, error)
	Create(ctx context.Context, actor authz.Actor, payload dto.TaskCreateRequest) (dto.TaskResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, payload dto.TaskUpdateRequest) (dto.TaskResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint) error
}

type taskService struct {
	tasks     repository.TaskRepository
	policy    *authz.Policy
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(tasks repository.TaskRepository, policy *authz.Policy, validate *validator.Validate, logger zerolog.Logger) TaskService {
	return &taskService{
		tasks:     tasks,
		policy:    policy,
		validator: validate,
		logger:    logger.With().Str("component", "task_service").Logger(),
	}
}

func (s *taskService) List(ctx context.Context, actor authz.Actor, filter dto.TaskFilter) ([]dto.TaskResponse, error) {
	assigneeID, err := scopeListToLearner(ctx, s.policy, actor, authz.KindTask, filter.AssignedToID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, repository.TaskFilter{AssignedToID: assigneeID, Completed: filter.Completed})
	if err != nil {
		return nil, err
	}

	return dto.NewTaskResponseSlice(tasks), nil
}

func (s *taskService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.TaskResponse, error) {
	task, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	return dto.NewTaskResponse(task), nil
}

// Create assigns a task to a learner. Setting tasks is a staff operation.
func (s *taskService) Create(ctx context.Context, actor authz.Actor, payload dto.TaskCreateRequest) (dto.TaskResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TaskResponse{}, err
	}

	if !authz.IsElevated(actor.Role) {
		return dto.TaskResponse{}, &authz.DenyError{Reason: "task creation is staff only"}
	}

	decision, err := s.policy.CanAccess(ctx, actor, authz.KindTask, authz.Owner(payload.AssignedToID))
	if err != nil {
		return dto.TaskResponse{}, err
	}
	if err := decision.Err(); err != nil {
		return dto.TaskResponse{}, err
	}

	task := models.Task{
		AssignedToID: payload.AssignedToID,
		CreatedByID:  actor.ID,
		Title:        payload.Title,
		Details:      payload.Details,
		DueDate:      payload.DueDate,
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return dto.TaskResponse{}, err
	}

	s.logger.Info().Uint("task_id", task.ID).Uint("assigned_to", task.AssignedToID).Msg("task created")

	return dto.NewTaskResponse(task), nil
}

// Update patches a task. The assignee may only toggle completion; content
// fields stay with staff.
func (s *taskService) Update(ctx context.Context, actor authz.Actor, id uint, payload dto.TaskUpdateRequest) (dto.TaskResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TaskResponse{}, err
	}

	task, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	contentEdit := payload.Title != nil || payload.Details != nil || payload.DueDate != nil
	if contentEdit && !authz.IsElevated(actor.Role) {
		return dto.TaskResponse{}, &authz.DenyError{Reason: "task content is staff only"}
	}

	if payload.Title != nil {
		task.Title = *payload.Title
	}
	if payload.Details != nil {
		task.Details = *payload.Details
	}
	if payload.DueDate != nil {
		task.DueDate = payload.DueDate
	}
	if payload.Completed != nil {
		task.Completed = *payload.Completed
	}

	if err := s.tasks.Update(ctx, &task); err != nil {
		return dto.TaskResponse{}, err
	}

	return dto.NewTaskResponse(task), nil
}

func (s *taskService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	task, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return err
	}

	if !authz.IsSuperuser(actor.Role) && actor.ID != task.CreatedByID {
		return &authz.DenyError{Reason: "only the task creator may delete it"}
	}

	return s.tasks.Delete(ctx, id)
}

func (s *taskService) fetchVisible(ctx context.Context, actor authz.Actor, id uint) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}

	decision, err := s.policy.CanAccess(ctx, actor, authz.KindTask, task)
	if err != nil {
		return models.Task{}, err
	}
	if err := decision.Err(); err != nil {
		return models.Task{}, err
	}

	return task, nil
}
