package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// EvidenceFilter narrows evidence queries.
type EvidenceFilter struct {
	LearnerID *uint
	Status    *string
}

// EvidenceRepository defines data operations for evidence items. Status
// transitions use the same guarded-update contract as OTJ logs.
type EvidenceRepository interface {
	List(ctx context.Context, filter EvidenceFilter) ([]models.Evidence, error)
	GetByID(ctx context.Context, id uint) (models.Evidence, error)
	Create(ctx context.Context, evidence *models.Evidence) error
	Update(ctx context.Context, evidence *models.Evidence) error
	Delete(ctx context.Context, id uint) error
	TransitionFrom(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}) error
	ReviseWithFeedback(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}, feedback *models.Feedback) error
}

type evidenceRepository struct {
	db *gorm.DB
}

// NewEvidenceRepository instantiates the repository.
func NewEvidenceRepository(db *gorm.DB) EvidenceRepository {
	return &evidenceRepository{db: db}
}

func (r *evidenceRepository) List(ctx context.Context, filter EvidenceFilter) ([]models.Evidence, error) {
	query := r.db.WithContext(ctx).Model(&models.Evidence{})

	if filter.LearnerID != nil {
		query = query.Where("learner_id = ?", *filter.LearnerID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var items []models.Evidence
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

func (r *evidenceRepository) GetByID(ctx context.Context, id uint) (models.Evidence, error) {
	var evidence models.Evidence
	if err := r.db.WithContext(ctx).First(&evidence, id).Error; err != nil {
		return models.Evidence{}, err
	}

	return evidence, nil
}

func (r *evidenceRepository) Create(ctx context.Context, evidence *models.Evidence) error {
	return r.db.WithContext(ctx).Create(evidence).Error
}

func (r *evidenceRepository) Update(ctx context.Context, evidence *models.Evidence) error {
	return r.db.WithContext(ctx).Save(evidence).Error
}

func (r *evidenceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Evidence{}, id).Error
}

func (r *evidenceRepository) TransitionFrom(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}) error {
	return transitionGuarded(r.db.WithContext(ctx), &models.Evidence{}, id, fromStatus, updates)
}

// ReviseWithFeedback moves the item to needs_revision and inserts feedback
// in one transaction, mirroring OtjLogRepository.RejectWithFeedback.
func (r *evidenceRepository) ReviseWithFeedback(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transitionGuarded(tx, &models.Evidence{}, id, fromStatus, updates); err != nil {
			return err
		}
		return tx.Create(feedback).Error
	})
}
