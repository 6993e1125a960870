package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/middleware"
	"github.com/noah-isme/aptrack-go-api/internal/service"
	"github.com/noah-isme/aptrack-go-api/internal/utils"
)

func actorFromContext(c *fiber.Ctx) authz.Actor {
	actor := authz.Actor{}

	if v := c.Locals("user_id"); v != nil {
		switch id := v.(type) {
		case uint:
			actor.ID = id
		case int:
			if id > 0 {
				actor.ID = uint(id)
			}
		case string:
			if parsed, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64); err == nil {
				actor.ID = uint(parsed)
			}
		}
	}

	if v := c.Locals("user_role"); v != nil {
		if roleString, ok := v.(string); ok {
			if role, err := authz.ParseRole(roleString); err == nil {
				actor.Role = role
			}
		}
	}

	return actor
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := c.Params(key)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := c.Query(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, err
	}
	result := uint(parsed)
	return &result, nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryBool(c *fiber.Ctx, key string) (*bool, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError maps domain errors onto HTTP status codes. Handlers funnel
// every service error through here so the mapping stays in one place.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	var denied *authz.DenyError

	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, authz.ErrUnknownRole):
		return utils.SendError(c, fiber.StatusBadRequest, "unknown role")
	case errors.As(err, &denied):
		return utils.SendError(c, fiber.StatusForbidden, denied.Error())
	case errors.Is(err, authz.ErrForbiddenTransition):
		return utils.SendError(c, fiber.StatusForbidden, "transition not permitted for this actor")
	case errors.Is(err, authz.ErrInvalidState):
		return utils.SendError(c, fiber.StatusConflict, "resource is not in a valid state for this operation")
	case errors.Is(err, authz.ErrResourceLocked):
		return utils.SendError(c, fiber.StatusLocked, "resource is locked")
	case errors.Is(err, authz.ErrProfileNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "learner profile not found")
	case errors.Is(err, service.ErrOtjLogNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "otj log not found")
	case errors.Is(err, service.ErrEvidenceNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evidence not found")
	case errors.Is(err, service.ErrFeedbackNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "feedback not found")
	case errors.Is(err, service.ErrTaskNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrGoalNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "learning goal not found")
	case errors.Is(err, service.ErrProfileExists):
		return utils.SendError(c, fiber.StatusConflict, "learner profile already exists")
	case errors.Is(err, service.ErrEmptyFeedbackMessage):
		return utils.SendError(c, fiber.StatusBadRequest, "feedback message must not be empty")
	case errors.Is(err, service.ErrLearnerScopeRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "learner_id is required")
	default:
		requestLogger(logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
