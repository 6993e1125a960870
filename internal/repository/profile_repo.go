package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/models"
)

// ProfileRepository defines data operations for learner profiles. It also
// serves as the association source for the access policy.
type ProfileRepository interface {
	GetByLearnerID(ctx context.Context, learnerID uint) (models.LearnerProfile, error)
	Create(ctx context.Context, profile *models.LearnerProfile) error
	Update(ctx context.Context, profile *models.LearnerProfile) error
	Associations(ctx context.Context, learnerID uint) (authz.Associations, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByLearnerID(ctx context.Context, learnerID uint) (models.LearnerProfile, error) {
	var profile models.LearnerProfile
	if err := r.db.WithContext(ctx).Where("learner_id = ?", learnerID).First(&profile).Error; err != nil {
		return models.LearnerProfile{}, err
	}

	return profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.LearnerProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) Update(ctx context.Context, profile *models.LearnerProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *profileRepository) Associations(ctx context.Context, learnerID uint) (authz.Associations, error) {
	profile, err := r.GetByLearnerID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authz.Associations{}, authz.ErrProfileNotFound
		}
		return authz.Associations{}, err
	}

	return authz.Associations{
		TutorID:            profile.TutorID,
		IQAID:              profile.IQAID,
		TrainingProviderID: profile.TrainingProviderID,
	}, nil
}
