package authz

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type staticProfiles map[uint]Associations

func (s staticProfiles) Associations(_ context.Context, learnerID uint) (Associations, error) {
	assoc, ok := s[learnerID]
	if !ok {
		return Associations{}, ErrProfileNotFound
	}
	return assoc, nil
}

func uintPtr(v uint) *uint {
	return &v
}

func newTestPolicy(profiles staticProfiles) *Policy {
	return NewPolicy(NewResolver(profiles), zerolog.New(io.Discard))
}

func TestCanAccessOwner(t *testing.T) {
	policy := newTestPolicy(staticProfiles{})

	decision, err := policy.CanAccess(context.Background(), Actor{ID: 7, Role: RoleLearner}, KindOtjLog, Owner(7))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestCanAccessLearnerDeniedForOthers(t *testing.T) {
	policy := newTestPolicy(staticProfiles{
		8: {},
	})

	decision, err := policy.CanAccess(context.Background(), Actor{ID: 7, Role: RoleLearner}, KindOtjLog, Owner(8))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, "not owner or associated", decision.Reason)

	denyErr := decision.Err()
	require.Error(t, denyErr)
	require.True(t, IsDenied(denyErr))
}

func TestCanAccessSuperuserBypassesAssociations(t *testing.T) {
	policy := newTestPolicy(staticProfiles{})

	for _, role := range []Role{RoleAdmin, RoleOperations} {
		decision, err := policy.CanAccess(context.Background(), Actor{ID: 99, Role: role}, KindEvidence, Owner(8))
		require.NoError(t, err)
		require.True(t, decision.Allowed, "role %s", role)
	}
}

func TestCanAccessAssociatedStaff(t *testing.T) {
	profiles := staticProfiles{
		8: {
			TutorID:            uintPtr(20),
			IQAID:              uintPtr(30),
			TrainingProviderID: uintPtr(40),
		},
	}
	policy := newTestPolicy(profiles)

	cases := []struct {
		actor   Actor
		allowed bool
	}{
		{Actor{ID: 20, Role: RoleAssessor}, true},
		{Actor{ID: 30, Role: RoleIQA}, true},
		{Actor{ID: 40, Role: RoleTrainingProvider}, true},
		// right person, wrong slot for the role
		{Actor{ID: 20, Role: RoleIQA}, false},
		{Actor{ID: 30, Role: RoleAssessor}, false},
		// unrelated staff
		{Actor{ID: 99, Role: RoleAssessor}, false},
		{Actor{ID: 99, Role: RoleIQA}, false},
	}

	for _, tc := range cases {
		decision, err := policy.CanAccess(context.Background(), tc.actor, KindOtjLog, Owner(8))
		require.NoError(t, err)
		require.Equal(t, tc.allowed, decision.Allowed, "actor %d role %s", tc.actor.ID, tc.actor.Role)
	}
}

func TestCanAccessMissingProfileDeniesStaff(t *testing.T) {
	policy := newTestPolicy(staticProfiles{})

	decision, err := policy.CanAccess(context.Background(), Actor{ID: 20, Role: RoleAssessor}, KindOtjLog, Owner(8))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, "owner has no profile", decision.Reason)
}

func TestCanAccessUnknownRole(t *testing.T) {
	policy := newTestPolicy(staticProfiles{})

	_, err := policy.CanAccess(context.Background(), Actor{ID: 20, Role: Role("guest")}, KindOtjLog, Owner(8))
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestResolverIsAssociatedIgnoresBaseRoles(t *testing.T) {
	resolver := NewResolver(staticProfiles{
		8: {TutorID: uintPtr(8)},
	})

	associated, err := resolver.IsAssociated(context.Background(), 8, RoleLearner, 8)
	require.NoError(t, err)
	require.False(t, associated)
}
