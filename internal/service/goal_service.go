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

// ErrGoalNotFound indicates a learning goal could not be found.
var ErrGoalNotFound = errors.New("learning goal not found")

// GoalService manages learner-owned learning goals.
type GoalService interface {
	List(ctx context.Context, actor authz.Actor, filter dto.GoalFilter) ([]dto.GoalResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.GoalResponse, error)
	Create(ctx context.Context, actor authz.Actor, payload dto.GoalCreateRequest) (dto.GoalResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, payload dto.GoalUpdateRequest) (dto.GoalResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint) error
}

type goalService struct {
	goals     repository.GoalRepository
	policy    *authz.Policy
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGoalService constructs a GoalService instance.
func NewGoalService(goals repository.GoalRepository, policy *authz.Policy, validate *validator.Validate, logger zerolog.Logger) GoalService {
	return &goalService{
		goals:     goals,
		policy:    policy,
		validator: validate,
		logger:    logger.With().Str("component", "goal_service").Logger(),
	}
}

func (s *goalService) List(ctx context.Context, actor authz.Actor, filter dto.GoalFilter) ([]dto.GoalResponse, error) {
	learnerID, err := scopeListToLearner(ctx, s.policy, actor, authz.KindLearningGoal, filter.LearnerID)
	if err != nil {
		return nil, err
	}

	goals, err := s.goals.List(ctx, repository.GoalFilter{LearnerID: learnerID, Achieved: filter.Achieved})
	if err != nil {
		return nil, err
	}

	return dto.NewGoalResponseSlice(goals), nil
}

func (s *goalService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.GoalResponse, error) {
	goal, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.GoalResponse{}, err
	}

	return dto.NewGoalResponse(goal), nil
}

func (s *goalService) Create(ctx context.Context, actor authz.Actor, payload dto.GoalCreateRequest) (dto.GoalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GoalResponse{}, err
	}

	goal := models.LearningGoal{
		LearnerID:   actor.ID,
		Title:       payload.Title,
		Description: payload.Description,
		TargetDate:  payload.TargetDate,
	}

	if err := s.goals.Create(ctx, &goal); err != nil {
		return dto.GoalResponse{}, err
	}

	s.logger.Info().Uint("goal_id", goal.ID).Uint("learner_id", actor.ID).Msg("learning goal created")

	return dto.NewGoalResponse(goal), nil
}

func (s *goalService) Update(ctx context.Context, actor authz.Actor, id uint, payload dto.GoalUpdateRequest) (dto.GoalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GoalResponse{}, err
	}

	goal, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.GoalResponse{}, err
	}

	if payload.Title != nil {
		goal.Title = *payload.Title
	}
	if payload.Description != nil {
		goal.Description = *payload.Description
	}
	if payload.TargetDate != nil {
		goal.TargetDate = payload.TargetDate
	}
	if payload.Achieved != nil {
		goal.Achieved = *payload.Achieved
	}

	if err := s.goals.Update(ctx, &goal); err != nil {
		return dto.GoalResponse{}, err
	}

	return dto.NewGoalResponse(goal), nil
}

func (s *goalService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	goal, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return err
	}

	if !authz.IsSuperuser(actor.Role) && actor.ID != goal.LearnerID {
		return &authz.DenyError{Reason: "only the owner may delete a goal"}
	}

	return s.goals.Delete(ctx, id)
}

func (s *goalService) fetchVisible(ctx context.Context, actor authz.Actor, id uint) (models.LearningGoal, error) {
	goal, err := s.goals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LearningGoal{}, ErrGoalNotFound
		}
		return models.LearningGoal{}, err
	}

	decision, err := s.policy.CanAccess(ctx, actor, authz.KindLearningGoal, goal)
	if err != nil {
		return models.LearningGoal{}, err
	}
	if err := decision.Err(); err != nil {
		return models.LearningGoal{}, err
	}

	return goal, nil
}
