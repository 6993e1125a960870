package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// FeedbackRepository persists feedback items. Feedback is append-only;
// there is intentionally no update or delete operation.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	GetByID(ctx context.Context, id uint) (models.Feedback, error)
	ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Feedback, error)
	ListByRelatedItem(ctx context.Context, itemType string, itemID uint) ([]models.Feedback, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository instantiates the repository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *feedbackRepository) GetByID(ctx context.Context, id uint) (models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.WithContext(ctx).First(&feedback, id).Error; err != nil {
		return models.Feedback{}, err
	}

	return feedback, nil
}

func (r *feedbackRepository) ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Feedback, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var items []models.Feedback
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

func (r *feedbackRepository) ListByRelatedItem(ctx context.Context, itemType string, itemID uint) ([]models.Feedback, error) {
	var items []models.Feedback
	if err := r.db.WithContext(ctx).
		Where("related_item_type = ? AND related_item_id = ?", itemType, itemID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}
