package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/models"
)

type fakeProfileRepo struct {
	mu       sync.Mutex
	nextID   uint
	profiles map[uint]models.LearnerProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{nextID: 1, profiles: map[uint]models.LearnerProfile{}}
}

func (r *fakeProfileRepo) GetByLearnerID(_ context.Context, learnerID uint) (models.LearnerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[learnerID]
	if !ok {
		return models.LearnerProfile{}, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (r *fakeProfileRepo) Create(_ context.Context, profile *models.LearnerProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.ID = r.nextID
	r.nextID++
	r.profiles[profile.LearnerID] = *profile
	return nil
}

func (r *fakeProfileRepo) Update(_ context.Context, profile *models.LearnerProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.LearnerID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.profiles[profile.LearnerID] = *profile
	return nil
}

func (r *fakeProfileRepo) Associations(ctx context.Context, learnerID uint) (authz.Associations, error) {
	profile, err := r.GetByLearnerID(ctx, learnerID)
	if err != nil {
		return authz.Associations{}, authz.ErrProfileNotFound
	}
	return authz.Associations{
		TutorID:            profile.TutorID,
		IQAID:              profile.IQAID,
		TrainingProviderID: profile.TrainingProviderID,
	}, nil
}

func newProfileFixture(t *testing.T) (*fakeProfileRepo, ProfileService) {
	t.Helper()

	repo := newFakeProfileRepo()
	policy := authz.NewPolicy(authz.NewResolver(repo), testLogger())
	svc := NewProfileService(repo, policy, NewActivityService(&fakeActivityRepo{}, testValidator(), testLogger()), testValidator(), testLogger())
	return repo, svc
}

func TestProfileCreateStaffOnly(t *testing.T) {
	_, svc := newProfileFixture(t)

	_, err := svc.Create(context.Background(), authz.Actor{ID: learnerID, Role: authz.RoleLearner}, dto.ProfileCreateRequest{LearnerID: learnerID})
	require.True(t, authz.IsDenied(err))

	created, err := svc.Create(context.Background(), authz.Actor{ID: adminID, Role: authz.RoleAdmin}, dto.ProfileCreateRequest{LearnerID: learnerID})
	require.NoError(t, err)
	require.Equal(t, learnerID, created.LearnerID)
	require.Nil(t, created.TutorID)
}

func TestProfileCreateDuplicateFails(t *testing.T) {
	_, svc := newProfileFixture(t)
	staff := authz.Actor{ID: adminID, Role: authz.RoleAdmin}

	_, err := svc.Create(context.Background(), staff, dto.ProfileCreateRequest{LearnerID: learnerID})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), staff, dto.ProfileCreateRequest{LearnerID: learnerID})
	require.ErrorIs(t, err, ErrProfileExists)
}

func TestProfileAssignAssociationsOverwritesSlot(t *testing.T) {
	repo, svc := newProfileFixture(t)
	staff := authz.Actor{ID: adminID, Role: authz.RoleAdmin}

	_, err := svc.Create(context.Background(), staff, dto.ProfileCreateRequest{LearnerID: learnerID})
	require.NoError(t, err)

	updated, err := svc.AssignAssociations(context.Background(), staff, learnerID, dto.AssociationPatchRequest{
		TutorID: uintPtr(assessorID),
		IQAID:   uintPtr(iqaID),
	})
	require.NoError(t, err)
	require.Equal(t, assessorID, *updated.TutorID)
	require.Equal(t, iqaID, *updated.IQAID)
	require.Nil(t, updated.TrainingProviderID)

	// reassigning the tutor slot replaces the previous link
	replacement := uint(21)
	updated, err = svc.AssignAssociations(context.Background(), staff, learnerID, dto.AssociationPatchRequest{
		TutorID: &replacement,
	})
	require.NoError(t, err)
	require.Equal(t, replacement, *updated.TutorID)
	require.Equal(t, iqaID, *updated.IQAID)

	assoc, err := repo.Associations(context.Background(), learnerID)
	require.NoError(t, err)
	require.Equal(t, replacement, *assoc.TutorID)
}

func TestProfileAssignAssociationsGuards(t *testing.T) {
	_, svc := newProfileFixture(t)

	_, err := svc.AssignAssociations(context.Background(), authz.Actor{ID: learnerID, Role: authz.RoleLearner}, learnerID, dto.AssociationPatchRequest{TutorID: uintPtr(assessorID)})
	require.True(t, authz.IsDenied(err))

	_, err = svc.AssignAssociations(context.Background(), authz.Actor{ID: adminID, Role: authz.RoleAdmin}, learnerID, dto.AssociationPatchRequest{TutorID: uintPtr(assessorID)})
	require.ErrorIs(t, err, authz.ErrProfileNotFound)
}

func TestProfileGetVisibility(t *testing.T) {
	_, svc := newProfileFixture(t)
	staff := authz.Actor{ID: adminID, Role: authz.RoleAdmin}

	_, err := svc.Create(context.Background(), staff, dto.ProfileCreateRequest{LearnerID: learnerID})
	require.NoError(t, err)
	_, err = svc.AssignAssociations(context.Background(), staff, learnerID, dto.AssociationPatchRequest{TutorID: uintPtr(assessorID)})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), authz.Actor{ID: learnerID, Role: authz.RoleLearner}, learnerID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), authz.Actor{ID: assessorID, Role: authz.RoleAssessor}, learnerID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), authz.Actor{ID: strangerID, Role: authz.RoleLearner}, learnerID)
	require.True(t, authz.IsDenied(err))

	_, err = svc.Get(context.Background(), authz.Actor{ID: learnerID, Role: authz.RoleLearner}, strangerID)
	require.ErrorIs(t, err, authz.ErrProfileNotFound)
}
