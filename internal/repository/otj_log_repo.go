package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// OtjLogFilter narrows OTJ log queries.
type OtjLogFilter struct {
	LearnerID *uint
	Status    *string
}

// OtjLogRepository defines data operations for OTJ training-hour logs.
//
// Status transitions go through TransitionFrom/RejectWithFeedback, which
// apply a guarded update so that a concurrent caller losing the race
// observes authz.ErrInvalidState instead of silently overwriting.
type OtjLogRepository interface {
	List(ctx context.Context, filter OtjLogFilter) ([]models.OtjLog, error)
	GetByID(ctx context.Context, id uint) (models.OtjLog, error)
	Create(ctx context.Context, log *models.OtjLog) error
	Update(ctx context.Context, log *models.OtjLog) error
	Delete(ctx context.Context, id uint) error
	TransitionFrom(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}) error
	StampIQA(ctx context.Context, id uint, updates map[string]interface{}) error
	RejectWithFeedback(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}, feedback *models.Feedback) error
}

type otjLogRepository struct {
	db *gorm.DB
}

// NewOtjLogRepository instantiates the repository.
func NewOtjLogRepository(db *gorm.DB) OtjLogRepository {
	return &otjLogRepository{db: db}
}

func (r *otjLogRepository) List(ctx context.Context, filter OtjLogFilter) ([]models.OtjLog, error) {
	query := r.db.WithContext(ctx).Model(&models.OtjLog{})

	if filter.LearnerID != nil {
		query = query.Where("learner_id = ?", *filter.LearnerID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var logs []models.OtjLog
	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *otjLogRepository) GetByID(ctx context.Context, id uint) (models.OtjLog, error) {
	var log models.OtjLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return models.OtjLog{}, err
	}

	return log, nil
}

func (r *otjLogRepository) Create(ctx context.Context, log *models.OtjLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *otjLogRepository) Update(ctx context.Context, log *models.OtjLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

func (r *otjLogRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.OtjLog{}, id).Error
}

func (r *otjLogRepository) TransitionFrom(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}) error {
	return transitionGuarded(r.db.WithContext(ctx), &models.OtjLog{}, id, fromStatus, updates)
}

// StampIQA applies the second-tier stamp. The guard requires an approved
// entry with a first-tier verifier set and an empty IQA slot, so a replay
// or a concurrent stamp loses with ErrInvalidState.
func (r *otjLogRepository) StampIQA(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.OtjLog{}).
		Where("id = ? AND status = ? AND verifier_id IS NOT NULL AND iqa_verifier_id IS NULL", id, models.OtjStatusApproved).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return authz.ErrInvalidState
	}

	return nil
}

// RejectWithFeedback flips the status and inserts the feedback record in a
// single transaction. Neither write is observable without the other.
func (r *otjLogRepository) RejectWithFeedback(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transitionGuarded(tx, &models.OtjLog{}, id, fromStatus, updates); err != nil {
			return err
		}
		return tx.Create(feedback).Error
	})
}

func transitionGuarded(db *gorm.DB, model interface{}, id uint, fromStatus string, updates map[string]interface{}) error {
	result := db.Model(model).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return authz.ErrInvalidState
	}

	return nil
}
