package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		input    string
		expected Role
		wantErr  bool
	}{
		{"learner", RoleLearner, false},
		{"assessor", RoleAssessor, false},
		{"training_provider", RoleTrainingProvider, false},
		{"iqa", RoleIQA, false},
		{"admin", RoleAdmin, false},
		{"operations", RoleOperations, false},
		{"  Learner  ", RoleLearner, false},
		{"IQA", RoleIQA, false},
		{"", "", true},
		{"guest", "", true},
		{"superadmin", "", true},
	}

	for _, tc := range cases {
		role, err := ParseRole(tc.input)
		if tc.wantErr {
			require.ErrorIs(t, err, ErrUnknownRole, "input %q", tc.input)
			continue
		}
		require.NoError(t, err, "input %q", tc.input)
		require.Equal(t, tc.expected, role)
	}
}

func TestPrivilegeRank(t *testing.T) {
	rank, err := PrivilegeRank(RoleLearner)
	require.NoError(t, err)
	require.Equal(t, 0, rank)

	for _, role := range []Role{RoleAssessor, RoleTrainingProvider, RoleIQA} {
		rank, err := PrivilegeRank(role)
		require.NoError(t, err)
		require.Equal(t, 1, rank)
	}

	for _, role := range []Role{RoleAdmin, RoleOperations} {
		rank, err := PrivilegeRank(role)
		require.NoError(t, err)
		require.Equal(t, 2, rank)
	}

	_, err = PrivilegeRank(Role("guest"))
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestElevationTiers(t *testing.T) {
	require.False(t, IsElevated(RoleLearner))
	require.True(t, IsElevated(RoleAssessor))
	require.True(t, IsElevated(RoleIQA))
	require.True(t, IsElevated(RoleAdmin))

	require.False(t, IsSuperuser(RoleLearner))
	require.False(t, IsSuperuser(RoleAssessor))
	require.False(t, IsSuperuser(RoleTrainingProvider))
	require.False(t, IsSuperuser(RoleIQA))
	require.True(t, IsSuperuser(RoleAdmin))
	require.True(t, IsSuperuser(RoleOperations))
}
