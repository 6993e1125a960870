package authz

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ResourceKind tags the closed set of resource shapes the policy evaluates.
// Each kind documents which field of the resource supplies ownership.
type ResourceKind string

const (
	// KindEvidence is owned by the submitting learner.
	KindEvidence ResourceKind = "evidence"
	// KindOtjLog is owned by the learner who logged the hours.
	KindOtjLog ResourceKind = "otj_log"
	// KindFeedback is owned by its recipient.
	KindFeedback ResourceKind = "feedback"
	// KindTask is owned by its assignee.
	KindTask ResourceKind = "task"
	// KindLearningGoal is owned by the learner pursuing it.
	KindLearningGoal ResourceKind = "learning_goal"
	// KindProfile is owned by the learner the profile describes.
	KindProfile ResourceKind = "profile"
)

// Owned is implemented by every resource the policy can evaluate. OwnerID
// returns the learner (or recipient/assignee) identity that anchors
// ownership and association checks.
type Owned interface {
	OwnerID() uint
}

// Owner wraps a bare owner identity so list-scope and recipient checks can
// reuse CanAccess without a full resource in hand.
type Owner uint

// OwnerID returns the wrapped identity.
func (o Owner) OwnerID() uint { return uint(o) }

// Decision is the outcome of an access check. Ownership grants visibility
// only; state machines still gate individual transitions.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Deny builds a negative decision carrying an audit reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err converts a denied decision into a *DenyError, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DenyError{Reason: d.Reason}
}

// Policy evaluates whether an actor may see and target a resource. It is
// resource-kind agnostic: the same algorithm covers every kind, differing
// only in which field supplies the owner identity.
type Policy struct {
	resolver *Resolver
	logger   zerolog.Logger
}

// NewPolicy constructs the access policy evaluator.
func NewPolicy(resolver *Resolver, logger zerolog.Logger) *Policy {
	return &Policy{
		resolver: resolver,
		logger:   logger.With().Str("component", "access_policy").Logger(),
	}
}

// CanAccess decides visibility for the actor over the resource.
//
// Superusers are always allowed. Owners are allowed (visibility, not
// unconditional mutation rights). Elevated actors are allowed when the
// learner's profile links them in the slot matching their role. Everyone
// else is denied. A missing learner profile denies elevated actors rather
// than failing the request.
func (p *Policy) CanAccess(ctx context.Context, actor Actor, kind ResourceKind, resource Owned) (Decision, error) {
	if _, err := PrivilegeRank(actor.Role); err != nil {
		return Decision{}, err
	}

	if IsSuperuser(actor.Role) {
		return Allow, nil
	}

	ownerID := resource.OwnerID()
	if actor.ID == ownerID {
		return Allow, nil
	}

	if IsElevated(actor.Role) {
		associated, err := p.resolver.IsAssociated(ctx, actor.ID, actor.Role, ownerID)
		if err != nil {
			if errors.Is(err, ErrProfileNotFound) {
				p.logDeny(actor, kind, ownerID, "owner has no profile")
				return Deny("owner has no profile"), nil
			}
			return Decision{}, err
		}
		if associated {
			return Allow, nil
		}
	}

	p.logDeny(actor, kind, ownerID, "not owner or associated")
	return Deny("not owner or associated"), nil
}

func (p *Policy) logDeny(actor Actor, kind ResourceKind, ownerID uint, reason string) {
	p.logger.Debug().
		Uint("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Str("resource_kind", string(kind)).
		Uint("owner_id", ownerID).
		Str("reason", reason).
		Msg("access denied")
}
