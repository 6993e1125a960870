package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/models"
	"github.com/noah-isme/aptrack-go-api/internal/repository"
)

// ErrFeedbackNotFound indicates a feedback item could not be found.
var ErrFeedbackNotFound = errors.New("feedback not found")

// ErrEmptyFeedbackMessage indicates the message was empty after
// sanitization and trimming. Rejections cannot proceed without it.
var ErrEmptyFeedbackMessage = errors.New("feedback message must not be empty")

// FeedbackNotifier surfaces a persisted feedback item to its recipient.
// Delivery is best effort and happens after the owning transaction commits.
type FeedbackNotifier interface {
	Notify(ctx context.Context, feedback dto.FeedbackResponse)
}

// FeedbackService implements the rejection/feedback protocol and the
// standalone feedback surface.
type FeedbackService interface {
	// Compose validates and sanitizes a rejection message into a feedback
	// record ready to be inserted inside the rejecting transaction.
	Compose(senderID, recipientID uint, itemType string, itemID uint, message string) (models.Feedback, error)
	// Delivered announces a committed feedback record to its recipient.
	Delivered(ctx context.Context, feedback models.Feedback)
	Send(ctx context.Context, actor authz.Actor, payload dto.FeedbackSendRequest) (dto.FeedbackResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.FeedbackResponse, error)
	ListForRecipient(ctx context.Context, actor authz.Actor, recipientID uint, limit, offset int) ([]dto.FeedbackResponse, error)
}

type feedbackService struct {
	repo      repository.FeedbackRepository
	policy    *authz.Policy
	notifier  FeedbackNotifier
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewFeedbackService constructs the feedback service.
func NewFeedbackService(repo repository.FeedbackRepository, policy *authz.Policy, notifier FeedbackNotifier, validate *validator.Validate, logger zerolog.Logger) FeedbackService {
	return &feedbackService{
		repo:      repo,
		policy:    policy,
		notifier:  notifier,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "feedback_service").Logger(),
	}
}

func (s *feedbackService) Compose(senderID, recipientID uint, itemType string, itemID uint, message string) (models.Feedback, error) {
	clean := strings.TrimSpace(s.sanitizer.Sanitize(message))
	if clean == "" {
		return models.Feedback{}, ErrEmptyFeedbackMessage
	}

	return models.Feedback{
		SenderID:        senderID,
		RecipientID:     recipientID,
		Message:         clean,
		RelatedItemType: itemType,
		RelatedItemID:   itemID,
	}, nil
}

func (s *feedbackService) Delivered(ctx context.Context, feedback models.Feedback) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, dto.NewFeedbackResponse(feedback))
}

func (s *feedbackService) Send(ctx context.Context, actor authz.Actor, payload dto.FeedbackSendRequest) (dto.FeedbackResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FeedbackResponse{}, err
	}

	if !authz.IsElevated(actor.Role) {
		return dto.FeedbackResponse{}, &authz.DenyError{Reason: "only staff may send feedback"}
	}

	decision, err := s.policy.CanAccess(ctx, actor, authz.KindFeedback, authz.Owner(payload.RecipientID))
	if err != nil {
		return dto.FeedbackResponse{}, err
	}
	if err := decision.Err(); err != nil {
		return dto.FeedbackResponse{}, err
	}

	itemType := payload.RelatedItemType
	if itemType == "" {
		itemType = models.FeedbackItemGeneral
	}

	feedback, err := s.Compose(actor.ID, payload.RecipientID, itemType, payload.RelatedItemID, payload.Message)
	if err != nil {
		return dto.FeedbackResponse{}, err
	}

	if err := s.repo.Create(ctx, &feedback); err != nil {
		return dto.FeedbackResponse{}, err
	}

	s.logger.Info().
		Uint("feedback_id", feedback.ID).
		Uint("recipient_id", feedback.RecipientID).
		Msg("feedback sent")

	s.Delivered(ctx, feedback)

	return dto.NewFeedbackResponse(feedback), nil
}

func (s *feedbackService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.FeedbackResponse, error) {
	feedback, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FeedbackResponse{}, ErrFeedbackNotFound
		}
		return dto.FeedbackResponse{}, err
	}

	decision, err := s.policy.CanAccess(ctx, actor, authz.KindFeedback, feedback)
	if err != nil {
		return dto.FeedbackResponse{}, err
	}
	if err := decision.Err(); err != nil {
		return dto.FeedbackResponse{}, err
	}

	return dto.NewFeedbackResponse(feedback), nil
}

func (s *feedbackService) ListForRecipient(ctx context.Context, actor authz.Actor, recipientID uint, limit, offset int) ([]dto.FeedbackResponse, error) {
	decision, err := s.policy.CanAccess(ctx, actor, authz.KindFeedback, authz.Owner(recipientID))
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewFeedbackResponseSlice(items), nil
}
