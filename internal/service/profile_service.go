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

// ErrProfileExists indicates the learner already has a profile.
var ErrProfileExists = errors.New("learner profile already exists")

// ProfileService manages learner profiles and their staff associations.
type ProfileService interface {
	Get(ctx context.Context, actor authz.Actor, learnerID uint) (dto.ProfileResponse, error)
	Create(ctx context.Context, actor authz.Actor, payload dto.ProfileCreateRequest) (dto.ProfileResponse, error)
	AssignAssociations(ctx context.Context, actor authz.Actor, learnerID uint, payload dto.AssociationPatchRequest) (dto.ProfileResponse, error)
}

type profileService struct {
	profiles  repository.ProfileRepository
	policy    *authz.Policy
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewProfileService constructs a ProfileService instance.
func NewProfileService(profiles repository.ProfileRepository, policy *authz.Policy, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) ProfileService {
	return &profileService{
		profiles:  profiles,
		policy:    policy,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "profile_service").Logger(),
	}
}

func (s *profileService) Get(ctx context.Context, actor authz.Actor, learnerID uint) (dto.ProfileResponse, error) {
	profile, err := s.profiles.GetByLearnerID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, authz.ErrProfileNotFound
		}
		return dto.ProfileResponse{}, err
	}

	decision, err := s.policy.CanAccess(ctx, actor, authz.KindProfile, profile)
	if err != nil {
		return dto.ProfileResponse{}, err
	}
	if err := decision.Err(); err != nil {
		return dto.ProfileResponse{}, err
	}

	return dto.NewProfileResponse(profile), nil
}

// Create provisions a profile when a learner account is set up. Only
// elevated actors provision profiles.
func (s *profileService) Create(ctx context.Context, actor authz.Actor, payload dto.ProfileCreateRequest) (dto.ProfileResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProfileResponse{}, err
	}

	if !authz.IsElevated(actor.Role) {
		return dto.ProfileResponse{}, &authz.DenyError{Reason: "profile provisioning is staff only"}
	}

	if _, err := s.profiles.GetByLearnerID(ctx, payload.LearnerID); err == nil {
		return dto.ProfileResponse{}, ErrProfileExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ProfileResponse{}, err
	}

	profile := models.LearnerProfile{LearnerID: payload.LearnerID}
	if err := s.profiles.Create(ctx, &profile); err != nil {
		return dto.ProfileResponse{}, err
	}

	s.logger.Info().Uint("learner_id", payload.LearnerID).Msg("learner profile provisioned")

	return dto.NewProfileResponse(profile), nil
}

// AssignAssociations replaces staff links on a profile. Each slot holds at
// most one actor; assigning a slot overwrites the previous link.
func (s *profileService) AssignAssociations(ctx context.Context, actor authz.Actor, learnerID uint, payload dto.AssociationPatchRequest) (dto.ProfileResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProfileResponse{}, err
	}

	if !authz.IsElevated(actor.Role) {
		return dto.ProfileResponse{}, &authz.DenyError{Reason: "association changes are staff only"}
	}

	profile, err := s.profiles.GetByLearnerID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, authz.ErrProfileNotFound
		}
		return dto.ProfileResponse{}, err
	}

	if payload.TutorID != nil {
		profile.TutorID = payload.TutorID
	}
	if payload.IQAID != nil {
		profile.IQAID = payload.IQAID
	}
	if payload.TrainingProviderID != nil {
		profile.TrainingProviderID = payload.TrainingProviderID
	}

	if err := s.profiles.Update(ctx, &profile); err != nil {
		return dto.ProfileResponse{}, err
	}

	s.logger.Info().
		Uint("learner_id", learnerID).
		Uint("actor_id", actor.ID).
		Msg("learner associations updated")

	if s.activity != nil {
		entityID := profile.ID
		if _, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "profile.associations_updated",
			EntityType: string(authz.KindProfile),
			EntityID:   &entityID,
			Metadata:   map[string]interface{}{"learner_id": learnerID},
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record association activity")
		}
	}

	return dto.NewProfileResponse(profile), nil
}
