package authz

import (
	"errors"
	"fmt"
)

// ErrUnknownRole indicates an actor role outside the closed role set. Always
// a caller or configuration bug, never end-user input.
var ErrUnknownRole = errors.New("unknown role")

// ErrProfileNotFound indicates the learner has no profile record. Callers
// must treat this as visibility denied, not as a server fault.
var ErrProfileNotFound = errors.New("learner profile not found")

// ErrInvalidState indicates a transition was attempted from a state the
// resource is no longer in. The caller may refetch and retry once.
var ErrInvalidState = errors.New("resource is not in the expected state")

// ErrForbiddenTransition indicates the actor is ineligible for the requested
// transition regardless of resource state. Terminal for the request.
var ErrForbiddenTransition = errors.New("transition forbidden for this actor")

// ErrResourceLocked indicates a content mutation attempt on a resource that
// has been locked by approval.
var ErrResourceLocked = errors.New("resource is locked")

// DenyError is an authorization refusal from the access policy. The reason
// is kept for audit logging and is not meant to be shown verbatim to end
// users.
type DenyError struct {
	Reason string
}

func (e *DenyError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// IsDenied reports whether err is (or wraps) an access denial.
func IsDenied(err error) bool {
	var deny *DenyError
	return errors.As(err, &deny)
}
