package authz

import "context"

// Associations holds the staff identities linked to a learner. Each slot is
// nil when no link has been assigned.
type Associations struct {
	TutorID            *uint
	IQAID              *uint
	TrainingProviderID *uint
}

// ProfileSource supplies association data for a learner. Implementations
// must return ErrProfileNotFound when the learner has no profile.
type ProfileSource interface {
	Associations(ctx context.Context, learnerID uint) (Associations, error)
}

// Resolver answers relationship questions between staff actors and learners.
type Resolver struct {
	profiles ProfileSource
}

// NewResolver constructs a Resolver backed by the given profile source.
func NewResolver(profiles ProfileSource) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve returns the learner's current associations.
func (r *Resolver) Resolve(ctx context.Context, learnerID uint) (Associations, error) {
	return r.profiles.Associations(ctx, learnerID)
}

// IsAssociated reports whether the actor holds the association slot matching
// their role on the learner's profile. Only the three elevated reviewer
// roles can be associated; every other role returns false.
func (r *Resolver) IsAssociated(ctx context.Context, actorID uint, role Role, learnerID uint) (bool, error) {
	assoc, err := r.profiles.Associations(ctx, learnerID)
	if err != nil {
		return false, err
	}

	switch role {
	case RoleAssessor:
		return assoc.TutorID != nil && *assoc.TutorID == actorID, nil
	case RoleIQA:
		return assoc.IQAID != nil && *assoc.IQAID == actorID, nil
	case RoleTrainingProvider:
		return assoc.TrainingProviderID != nil && *assoc.TrainingProviderID == actorID, nil
	default:
		return false, nil
	}
}
