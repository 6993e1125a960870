package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// GoalFilter narrows learning goal queries.
type GoalFilter struct {
	LearnerID *uint
	Achieved  *bool
}

// GoalRepository defines data operations for learning goals.
type GoalRepository interface {
	List(ctx context.Context, filter GoalFilter) ([]models.LearningGoal, error)
	GetByID(ctx context.Context, id uint) (models.LearningGoal, error)
	Create(ctx context.Context, goal *models.LearningGoal) error
	Update(ctx context.Context, goal *models.LearningGoal) error
	Delete(ctx context.Context, id uint) error
}

type goalRepository struct {
	db *gorm.DB
}

// NewGoalRepository instantiates the repository.
func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) List(ctx context.Context, filter GoalFilter) ([]models.LearningGoal, error) {
	query := r.db.WithContext(ctx).Model(&models.LearningGoal{})

	if filter.LearnerID != nil {
		query = query.Where("learner_id = ?", *filter.LearnerID)
	}

	if filter.Achieved != nil {
		query = query.Where("achieved = ?", *filter.Achieved)
	}

	var goals []models.LearningGoal
	if err := query.Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) GetByID(ctx context.Context, id uint) (models.LearningGoal, error) {
	var goal models.LearningGoal
	if err := r.db.WithContext(ctx).First(&goal, id).Error; err != nil {
		return models.LearningGoal{}, err
	}

	return goal, nil
}

func (r *goalRepository) Create(ctx context.Context, goal *models.LearningGoal) error {
	return r.db.WithContext(ctx).Create(goal).Error
}

func (r *goalRepository) Update(ctx context.Context, goal *models.LearningGoal) error {
	return r.db.WithContext(ctx).Save(goal).Error
}

func (r *goalRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.LearningGoal{}, id).Error
}
