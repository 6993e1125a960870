package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/utils"
)

// Access tier constants used by the WithAuth helper.
const (
	AuthTierAny       = "any"
	AuthTierLearner   = "learner"
	AuthTierStaff     = "staff"
	AuthTierSuperuser = "superuser"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Tier           string
	AllowAnonymous bool
}

// WithAuth wraps a handler with authentication and privilege-tier guards.
// Fine-grained ownership and association decisions stay with the access
// policy inside the services; this guard only fences whole route groups.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	tier := strings.ToLower(strings.TrimSpace(opts.Tier))
	if tier == "" {
		tier = AuthTierAny
	}

	// Anonymous access only ever applies to the open tier.
	allowAnonymous := opts.AllowAnonymous && tier == AuthTierAny

	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id")
		if userID == nil && !allowAnonymous {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		if tier == AuthTierAny {
			return handler(c)
		}

		role, err := authz.ParseRole(normalizeRoleValue(c.Locals("user_role")))
		if err != nil {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		switch tier {
		case AuthTierLearner:
			if role != authz.RoleLearner {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		case AuthTierStaff:
			if !authz.IsElevated(role) {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		case AuthTierSuperuser:
			if !authz.IsSuperuser(role) {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		default:
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		return handler(c)
	}
}
