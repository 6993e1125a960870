package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/models"
	"github.com/noah-isme/aptrack-go-api/internal/observability"
	"github.com/noah-isme/aptrack-go-api/internal/repository"
)

// ErrOtjLogNotFound indicates an OTJ log entry could not be found.
var ErrOtjLogNotFound = errors.New("otj log not found")

// ErrLearnerScopeRequired indicates a staff list query omitted the learner filter.
var ErrLearnerScopeRequired = errors.New("learner_id is required")

// OtjService governs the two-tier verification lifecycle of training-hour
// log entries: draft -> submitted -> approved/rejected, with an optional
// IQA stamp on approved entries.
type OtjService interface {
	List(ctx context.Context, actor authz.Actor, filter dto.OtjLogFilter) ([]dto.OtjLogResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.OtjLogResponse, error)
	Create(ctx context.Context, actor authz.Actor, payload dto.OtjLogCreateRequest) (dto.OtjLogResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, payload dto.OtjLogUpdateRequest) (dto.OtjLogResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint) error
	Submit(ctx context.Context, actor authz.Actor, id uint) (dto.OtjLogResponse, error)
	Verify(ctx context.Context, actor authz.Actor, id uint) (dto.OtjLogResponse, error)
	IQAVerify(ctx context.Context, actor authz.Actor, id uint) (dto.OtjLogResponse, error)
	Reject(ctx context.Context, actor authz.Actor, id uint, payload dto.OtjRejectRequest) (dto.OtjLogResponse, error)
}

type otjService struct {
	logs      repository.OtjLogRepository
	policy    *authz.Policy
	feedback  FeedbackService
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewOtjService constructs an OtjService instance.
func NewOtjService(logs repository.OtjLogRepository, policy *authz.Policy, feedback FeedbackService, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) OtjService {
	return &otjService{
		logs:      logs,
		policy:    policy,
		feedback:  feedback,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "otj_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/aptrack-go-api/internal/service/otj"),
		now:       time.Now,
	}
}

func (s *otjService) List(ctx context.Context, actor authz.Actor, filter dto.OtjLogFilter) ([]dto.OtjLogResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	learnerID, err := scopeListToLearner(ctx, s.policy, actor, authz.KindOtjLog, filter.LearnerID)
	if err != nil {
		return nil, err
	}

	logs, err := s.logs.List(ctx, repository.OtjLogFilter{LearnerID: learnerID, Status: filter.Status})
	if err != nil {
		return nil, err
	}

	return dto.NewOtjLogResponseSlice(logs), nil
}

func (s *otjService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.OtjLogResponse, error) {
	log, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.OtjLogResponse{}, err
	}

	return dto.NewOtjLogResponse(log), nil
}

func (s *otjService) Create(ctx context.Context, actor authz.Actor, payload dto.OtjLogCreateRequest) (dto.OtjLogResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.OtjLogResponse{}, err
	}

	log := models.OtjLog{
		LearnerID:    actor.ID,
		Hours:        payload.Hours,
		ActivityDate: payload.ActivityDate,
		Description:  payload.Description,
		Status:       models.OtjStatusDraft,
	}

	if err := s.logs.Create(ctx, &log); err != nil {
		return dto.OtjLogResponse{}, err
	}

	s.logger.Info().Uint("otj_log_id", log.ID).Uint("learner_id", actor.ID).Msg("otj log created")

	return dto.NewOtjLogResponse(log), nil
}

// Update edits content fields. Content is owner-editable only while the
// entry is still a draft.
func (s *otjService) Update(ctx context.Context, actor authz.Actor, id uint, payload dto.OtjLogUpdateRequest) (dto.OtjLogResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.OtjLogResponse{}, err
	}

	log, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.OtjLogResponse{}, err
	}

	if actor.ID != log.LearnerID {
		return dto.OtjLogResponse{}, authz.ErrForbiddenTransition
	}
	if log.Status != models.OtjStatusDraft {
		return dto.OtjLogResponse{}, authz.ErrInvalidState
	}

	if payload.Hours != nil {
		log.Hours = *payload.Hours
	}
	if payload.ActivityDate != nil {
		log.ActivityDate = *payload.ActivityDate
	}
	if payload.Description != nil {
		log.Description = *payload.Description
	}

	if err := s.logs.Update(ctx, &log); err != nil {
		return dto.OtjLogResponse{}, err
	}

	return dto.NewOtjLogResponse(log), nil
}

// Delete removes a draft entry. Entries that have left draft are part of
// the verification record and are never physically deleted.
func (s *otjService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	log, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return err
	}

	if actor.ID != log.LearnerID || log.Status != models.OtjStatusDraft {
		return authz.ErrForbiddenTransition
	}

	return s.logs.Delete(ctx, id)
}

func (s *otjService) Submit(ctx context.Context, actor authz.Actor, id uint) (dto.OtjLogResponse, error) {
	ctx, span := s.tracer.Start(ctx, "otj.submit", trace.WithAttributes(
		attribute.Int64("otj.log_id", int64(id)),
		attribute.Int64("otj.actor_id", int64(actor.ID)),
	))
	defer span.End()

	log, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.OtjLogResponse{}, spanFail(span, err, "fetch_failed")
	}

	if actor.ID != log.LearnerID {
		return dto.OtjLogResponse{}, spanFail(span, authz.ErrForbiddenTransition, "not_owner")
	}

	err = s.logs.TransitionFrom(ctx, id, models.OtjStatusDraft, map[string]interface{}{
		"status": models.OtjStatusSubmitted,
	})
	if err != nil {
		return dto.OtjLogResponse{}, spanFail(span, err, "transition_failed")
	}

	return s.finishTransition(ctx, actor, id, "otj.submitted", nil)
}

// Verify applies first-tier approval. Assessor and training-provider roles
// may verify entries of learners they are associated with; superusers
// bypass the association requirement. The verifier must not be the owner.
func (s *otjService) Verify(ctx context.Context, actor authz.Actor, id uint) (dto.OtjLogResponse, error) {
	ctx, span := s.tracer.Start(ctx, "otj.verify", trace.WithAttributes(
		attribute.Int64("otj.log_id", int64(id)),
		attribute.Int64("otj.actor_id", int64(actor.ID)),
	))
	defer span.End()

	log, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.OtjLogResponse{}, spanFail(span, err, "fetch_failed")
	}

	if actor.ID == log.LearnerID {
		return dto.OtjLogResponse{}, spanFail(span, authz.ErrForbiddenTransition, "self_verification")
	}
	if !authz.IsSuperuser(actor.Role) && actor.Role != authz.RoleAssessor && actor.Role != authz.RoleTrainingProvider {
		return dto.OtjLogResponse{}, spanFail(span, authz.ErrForbiddenTransition, "role_ineligible")
	}

	verifiedAt := s.now()
	err = s.logs.TransitionFrom(ctx, id, models.OtjStatusSubmitted, map[string]interface{}{
		"status":            models.OtjStatusApproved,
		"verifier_id":       actor.ID,
		"verification_date": verifiedAt,
	})
	if err != nil {
		return dto.OtjLogResponse{}, spanFail(span, err, "transition_failed")
	}

	return s.finishTransition(ctx, actor, id, "otj.verified", map[string]interface{}{
		"verifier_id": actor.ID,
	})
}

// IQAVerify applies the second-tier stamp. Only the learner's IQA (or a
// superuser) may stamp, and only an approved entry that carries a
// first-tier verifier and no IQA stamp yet.
func (s *otjService) IQAVerify(ctx context.Context, actor authz.Actor, id uint) (dto.OtjLogResponse, error) {
	ctx, span := s.tracer.Start(ctx, "otj.iqa_verify", trace.WithAttributes(
		attribute.Int64("otj.log_id", int64(id)),
		attribute.Int64("otj.actor_id", int64(actor.ID)),
	))
	defer span.End()

	log, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.OtjLogResponse{}, spanFail(span, err, "fetch_failed")
	}

	if actor.ID == log.LearnerID {
		return dto.OtjLogResponse{}, spanFail(span, authz.ErrForbiddenTransition, "self_verification")
	}
	if !authz.IsSuperuser(actor.Role) && actor.Role != authz.RoleIQA {
		return dto.OtjLogResponse{}, spanFail(span, authz.ErrForbiddenTransition, "role_ineligible")
	}

	stampedAt := s.now()
	err = s.logs.StampIQA(ctx, id, map[string]interface{}{
		"iqa_verifier_id":       actor.ID,
		"iqa_verification_date": stampedAt,
	})
	if err != nil {
		return dto.OtjLogResponse{}, spanFail(span, err, "stamp_failed")
	}

	return s.finishTransition(ctx, actor, id, "otj.iqa_verified", map[string]interface{}{
		"iqa_verifier_id": actor.ID,
	})
}

// Reject refuses a submitted entry. The status flip and the mandatory
// feedback record are committed as one transaction; the losing caller of a
// concurrent race observes ErrInvalidState.
func (s *otjService) Reject(ctx context.Context, actor authz.Actor, id uint, payload dto.OtjRejectRequest) (dto.OtjLogResponse, error) {
	ctx, span := s.tracer.Start(ctx, "otj.reject", trace.WithAttributes(
		attribute.Int64("otj.log_id", int64(id)),
		attribute.Int64("otj.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.OtjLogResponse{}, spanFail(span, err, "validation_failed")
	}

	log, err := s.fetchVisible(ctx, actor, id)
	if err != nil {
		return dto.OtjLogResponse{}, spanFail(span, err, "fetch_failed")
	}

	if actor.ID == log.LearnerID {
		return dto.OtjLogResponse{}, spanFail(span, authz.ErrForbiddenTransition, "self_rejection")
	}
	if !authz.IsSuperuser(actor.Role) && !rejectEligible(actor.Role) {
		return dto.OtjLogResponse{}, spanFail(span, authz.ErrForbiddenTransition, "role_ineligible")
	}

	feedback, err := s.feedback.Compose(actor.ID, log.LearnerID, models.FeedbackItemOtjLog, log.ID, payload.Message)
	if err != nil {
		return dto.OtjLogResponse{}, spanFail(span, err, "feedback_compose_failed")
	}

	err = s.logs.RejectWithFeedback(ctx, id, models.OtjStatusSubmitted, map[string]interface{}{
		"status": models.OtjStatusRejected,
	}, &feedback)
	if err != nil {
		return dto.OtjLogResponse{}, spanFail(span, err, "transition_failed")
	}

	s.feedback.Delivered(ctx, feedback)

	return s.finishTransition(ctx, actor, id, "otj.rejected", map[string]interface{}{
		"feedback_id": feedback.ID,
	})
}

func (s *otjService) fetchVisible(ctx context.Context, actor authz.Actor, id uint) (models.OtjLog, error) {
	log, err := s.logs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.OtjLog{}, ErrOtjLogNotFound
		}
		return models.OtjLog{}, err
	}

	decision, err := s.policy.CanAccess(ctx, actor, authz.KindOtjLog, log)
	if err != nil {
		return models.OtjLog{}, err
	}
	if err := decision.Err(); err != nil {
		observability.AccessDenied().WithLabelValues(string(authz.KindOtjLog)).Inc()
		return models.OtjLog{}, err
	}

	return log, nil
}

func (s *otjService) finishTransition(ctx context.Context, actor authz.Actor, id uint, action string, metadata map[string]interface{}) (dto.OtjLogResponse, error) {
	updated, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return dto.OtjLogResponse{}, err
	}

	observability.Transitions().WithLabelValues(string(authz.KindOtjLog), action).Inc()
	s.logger.Info().
		Uint("otj_log_id", id).
		Uint("actor_id", actor.ID).
		Str("action", action).
		Str("status", updated.Status).
		Msg("otj transition applied")

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
			EntityType: string(authz.KindOtjLog),
			EntityID:   &entityID,
			Metadata:   meta,
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record otj activity")
		}
	}

	return dto.NewOtjLogResponse(updated), nil
}

func rejectEligible(role authz.Role) bool {
	switch role {
	case authz.RoleAssessor, authz.RoleTrainingProvider, authz.RoleIQA:
		return true
	default:
		return false
	}
}

func spanFail(span trace.Span, err error, reason string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}

// scopeListToLearner narrows list queries to learners the actor may see.
// Without an explicit learner filter, learners see their own records,
// superusers see everything, and elevated staff must name a learner.
func scopeListToLearner(ctx context.Context, policy *authz.Policy, actor authz.Actor, kind authz.ResourceKind, learnerID *uint) (*uint, error) {
	if learnerID == nil {
		if authz.IsSuperuser(actor.Role) {
			return nil, nil
		}
		if authz.IsElevated(actor.Role) {
			return nil, ErrLearnerScopeRequired
		}
		own := actor.ID
		return &own, nil
	}

	decision, err := policy.CanAccess(ctx, actor, kind, authz.Owner(*learnerID))
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		observability.AccessDenied().WithLabelValues(string(kind)).Inc()
		return nil, err
	}

	return learnerID, nil
}
