package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/models"
	"github.com/noah-isme/aptrack-go-api/internal/observability"
	"github.com/noah-isme/aptrack-go-api/internal/repository"
)

// ErrEvidenceNotFound indicates an evidence item could not be found.
var ErrEvidenceNotFound = errors.New("evidence not found")

// EvidenceService governs the review lifecycle of evidence submissions:
// draft -> submitted -> in_review -> approved | needs_revision, with
// needs_revision returning to submitted on resubmission. Approval locks
// content mutation permanently.
type EvidenceService interface {
	List(ctx context.Context, actor authz.Actor, filter dto.EvidenceFilter) ([]dto.EvidenceResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.EvidenceResponse, error)
	Create(ctx context.Context, actor authz.Actor, payload dto.EvidenceCreateRequest) (dto.EvidenceResponse, error)
	UpdateContent(ctx context.Context, actor authz.Actor, id uint, payload dto.EvidenceUpdateRequest) (dto.EvidenceResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint) error
	Submit(ctx context.Context, actor authz.Actor, id uint) (dto.EvidenceResponse, error)
	StartReview(ctx context.Context, actor authz.Actor, id uint) (dto.EvidenceResponse, error)
	Approve(ctx context.Context, actor authz.Actor, id uint) (dto.EvidenceResponse, error)
	RequestRevision(ctx context.Context, actor authz.Actor, id uint, payload dto.EvidenceRevisionRequest) (dto.EvidenceResponse, error)
}

type evidenceService struct {
	items     repository.EvidenceRepository
	policy    *authz.Policy
	feedback  FeedbackService
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewEvidenceService constructs an EvidenceService instance.
func NewEvidenceService(items repository.EvidenceRepository, policy *authz.Policy, feedback FeedbackService, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) EvidenceService {
	return &evidenceService{
		items:     items,
		policy:    policy,
		feedback:  feedback,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "evidence_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/aptrack-go-api/internal/service/evidence"),
		now:       time.Now,
	}
}

func (s *evidenceService) List(ctx context.Context, actor authz.Actor, filter dto.EvidenceFilter) ([]dto.EvidenceResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	learnerID, err := scopeListToLearner(ctx, s.policy, actor, authz.KindEvidence, filter.LearnerID)
	if err != nil {
		return nil, err
	}

	items, err := s.items.List(ctx, repository.EvidenceFilter{LearnerID: learnerID, Status: filter.Status})
	if err != nil {
		return nil, err
	}

	return dto.NewEvidenceResponseSlice(items), nil
}

func (s *evidenceService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.EvidenceResponse, error) {
	evidence, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.EvidenceResponse{}, err
	}

	return dto.NewEvidenceResponse(evidence), nil
}

func (s *evidenceService) Create(ctx context.Context, actor authz.Actor, payload dto.EvidenceCreateRequest) (dto.EvidenceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvidenceResponse{}, err
	}

	evidence := models.Evidence{
		LearnerID:   actor.ID,
		Title:       payload.Title,
		Description: payload.Description,
		FileURL:     payload.FileURL,
		Status:      models.EvidenceStatusDraft,
	}

	if err := s.items.Create(ctx, &evidence); err != nil {
		return dto.EvidenceResponse{}, err
	}

	s.logger.Info().Uint("evidence_id", evidence.ID).Uint("learner_id", actor.ID).Msg("evidence created")

	return dto.NewEvidenceResponse(evidence), nil
}

// UpdateContent edits the learner-owned content fields. Approval locks
// them permanently; reviewers never edit content.
func (s *evidenceService) UpdateContent(ctx context.Context, actor authz.Actor, id uint, payload dto.EvidenceUpdateRequest) (dto.EvidenceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvidenceResponse{}, err
	}

	evidence, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.EvidenceResponse{}, err
	}

	if actor.ID != evidence.LearnerID {
		return dto.EvidenceResponse{}, authz.ErrForbiddenTransition
	}
	if evidence.IsLocked() {
		return dto.EvidenceResponse{}, authz.ErrResourceLocked
	}

	if payload.Title != nil {
		evidence.Title = *payload.Title
	}
	if payload.Description != nil {
		evidence.Description = *payload.Description
	}
	if payload.FileURL != nil {
		evidence.FileURL = *payload.FileURL
	}

	if err := s.items.Update(ctx, &evidence); err != nil {
		return dto.EvidenceResponse{}, err
	}

	return dto.NewEvidenceResponse(evidence), nil
}

// Delete removes a draft item. The owner may only delete drafts; nobody
// else may delete at all.
func (s *evidenceService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	evidence, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return err
	}

	if actor.ID != evidence.LearnerID || evidence.Status != models.EvidenceStatusDraft {
		return authz.ErrForbiddenTransition
	}

	return s.items.Delete(ctx, id)
}

// Submit moves a draft or a revision-requested item back into the review
// queue.
func (s *evidenceService) Submit(ctx context.Context, actor authz.Actor, id uint) (dto.EvidenceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.submit", trace.WithAttributes(
		attribute.Int64("evidence.id", int64(id)),
		attribute.Int64("evidence.actor_id", int64(actor.ID)),
	))
	defer span.End()

	evidence, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "fetch_failed")
	}

	if actor.ID != evidence.LearnerID {
		return dto.EvidenceResponse{}, spanFail(span, authz.ErrForbiddenTransition, "not_owner")
	}

	from := evidence.Status
	if from != models.EvidenceStatusDraft && from != models.EvidenceStatusNeedsRevision {
		return dto.EvidenceResponse{}, spanFail(span, authz.ErrInvalidState, "not_submittable")
	}

	err = s.items.TransitionFrom(ctx, id, from, map[string]interface{}{
		"status": models.EvidenceStatusSubmitted,
	})
	if err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "transition_failed")
	}

	return s.finishTransition(ctx, actor, id, "evidence.submitted", nil)
}

// StartReview claims a submitted item for review.
func (s *evidenceService) StartReview(ctx context.Context, actor authz.Actor, id uint) (dto.EvidenceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.start_review", trace.WithAttributes(
		attribute.Int64("evidence.id", int64(id)),
		attribute.Int64("evidence.actor_id", int64(actor.ID)),
	))
	defer span.End()

	evidence, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "fetch_failed")
	}

	if err := s.reviewEligible(actor, evidence); err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "actor_ineligible")
	}

	err = s.items.TransitionFrom(ctx, id, models.EvidenceStatusSubmitted, map[string]interface{}{
		"status":      models.EvidenceStatusInReview,
		"reviewer_id": actor.ID,
	})
	if err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "transition_failed")
	}

	return s.finishTransition(ctx, actor, id, "evidence.review_started", nil)
}

// Approve accepts an in-review item and locks its content.
func (s *evidenceService) Approve(ctx context.Context, actor authz.Actor, id uint) (dto.EvidenceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.approve", trace.WithAttributes(
		attribute.Int64("evidence.id", int64(id)),
		attribute.Int64("evidence.actor_id", int64(actor.ID)),
	))
	defer span.End()

	evidence, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "fetch_failed")
	}

	if err := s.reviewEligible(actor, evidence); err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "actor_ineligible")
	}

	approvedAt := s.now()
	err = s.items.TransitionFrom(ctx, id, models.EvidenceStatusInReview, map[string]interface{}{
		"status":      models.EvidenceStatusApproved,
		"reviewer_id": actor.ID,
		"approved_at": approvedAt,
	})
	if err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "transition_failed")
	}

	return s.finishTransition(ctx, actor, id, "evidence.approved", nil)
}

// RequestRevision returns an item to its owner for rework. Legal from
// in_review, or directly from submitted when the reviewer bounces the item
// without claiming it. The status flip and the mandatory feedback record
// are committed together.
func (s *evidenceService) RequestRevision(ctx context.Context, actor authz.Actor, id uint, payload dto.EvidenceRevisionRequest) (dto.EvidenceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.request_revision", trace.WithAttributes(
		attribute.Int64("evidence.id", int64(id)),
		attribute.Int64("evidence.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "validation_failed")
	}

	evidence, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "fetch_failed")
	}

	if err := s.reviewEligible(actor, evidence); err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "actor_ineligible")
	}

	from := evidence.Status
	if from != models.EvidenceStatusInReview && from != models.EvidenceStatusSubmitted {
		return dto.EvidenceResponse{}, spanFail(span, authz.ErrInvalidState, "not_revisable")
	}

	feedback, err := s.feedback.Compose(actor.ID, evidence.LearnerID, models.FeedbackItemEvidence, evidence.ID, payload.Message)
	if err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "feedback_compose_failed")
	}

	err = s.items.ReviseWithFeedback(ctx, id, from, map[string]interface{}{
		"status":      models.EvidenceStatusNeedsRevision,
		"reviewer_id": actor.ID,
	}, &feedback)
	if err != nil {
		return dto.EvidenceResponse{}, spanFail(span, err, "transition_failed")
	}

	s.feedback.Delivered(ctx, feedback)

	return s.finishTransition(ctx, actor, id, "evidence.revision_requested", map[string]interface{}{
		"feedback_id": feedback.ID,
	})
}

// reviewEligible enforces the review-side guards shared by startReview,
// approve and requestRevision: elevated role required, owners never review
// their own submissions.
func (s *evidenceService) reviewEligible(actor authz.Actor, evidence models.Evidence) error {
	if actor.ID == evidence.LearnerID {
		return authz.ErrForbiddenTransition
	}
	if !authz.IsElevated(actor.Role) {
		return authz.ErrForbiddenTransition
	}
	return nil
}

func (s *evidenceService) fetchVisible(ctx context.Context, actor authz.Actor, id uint) (models.Evidence, error) {
	evidence, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Evidence{}, ErrEvidenceNotFound
		}
		return models.Evidence{}, err
	}

	decision, err := s.policy.CanAccess(ctx, actor, authz.KindEvidence, evidence)
	if err != nil {
		return models.Evidence{}, err
	}
	if err := decision.Err(); err != nil {
		observability.AccessDenied().WithLabelValues(string(authz.KindEvidence)).Inc()
		return models.Evidence{}, err
	}

	return evidence, nil
}

func (s *evidenceService) finishTransition(ctx context.Context, actor authz.Actor, id uint, action string, metadata map[string]interface{}) (dto.EvidenceResponse, error) {
	updated, err := s.items.GetByID(ctx, id)
	if err != nil {
		return dto.EvidenceResponse{}, err
	}

	observability.Transitions().WithLabelValues(string(authz.KindEvidence), action).Inc()
	s.logger.Info().
		Uint("evidence_id", id).
		Uint("actor_id", actor.ID).
		Str("action", action).
		Str("status", updated.Status).
		Msg("evidence transition applied")

	if s.activity != nil {
		entityID := id
		meta := map[string]interface{}{"learner_id": updated.LearnerID}
		for key, value := range metadata {
			meta[key] = value
		}
		if _, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     action,
			EntityType: string(authz.KindEvidence),
			EntityID:   &entityID,
			Metadata:   meta,
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record evidence activity")
		}
	}

	return dto.NewEvidenceResponse(updated), nil
}
