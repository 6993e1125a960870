package authz

import "strings"

// Role identifies one of the closed set of actor roles known to the platform.
type Role string

const (
	// RoleLearner is the base role; learners own their training records.
	RoleLearner Role = "learner"
	// RoleAssessor is the first-tier verifier linked to a learner as tutor.
	RoleAssessor Role = "assessor"
	// RoleTrainingProvider represents the learner's training organisation.
	RoleTrainingProvider Role = "training_provider"
	// RoleIQA is the internal quality assurer, the second-tier verifier.
	RoleIQA Role = "iqa"
	// RoleAdmin is a platform superuser.
	RoleAdmin Role = "admin"
	// RoleOperations is a platform superuser used by support staff.
	RoleOperations Role = "operations"
)

var roleRanks = map[Role]int{
	RoleLearner:          0,
	RoleAssessor:         1,
	RoleTrainingProvider: 1,
	RoleIQA:              1,
	RoleAdmin:            2,
	RoleOperations:       2,
}

// ParseRole normalizes a raw role string into a Role from the closed set.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := roleRanks[role]; !ok {
		return "", ErrUnknownRole
	}
	return role, nil
}

// PrivilegeRank returns the privilege tier of a role: 0 for learners,
// 1 for elevated reviewer roles, 2 for superusers.
func PrivilegeRank(role Role) (int, error) {
	rank, ok := roleRanks[role]
	if !ok {
		return 0, ErrUnknownRole
	}
	return rank, nil
}

// IsElevated reports whether the role outranks learners over learner-owned
// resources. Superusers are elevated too.
func IsElevated(role Role) bool {
	rank, ok := roleRanks[role]
	return ok && rank >= 1
}

// IsSuperuser reports whether the role bypasses ownership and association
// checks entirely.
func IsSuperuser(role Role) bool {
	rank, ok := roleRanks[role]
	return ok && rank >= 2
}

// Actor is the identity/role pair carried by every engine call. It is
// resolved per request by the transport layer and never read from ambient
// state.
type Actor struct {
	ID   uint
	Role Role
}
