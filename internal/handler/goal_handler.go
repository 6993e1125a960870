package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/service"
	"github.com/noah-isme/aptrack-go-api/internal/utils"
)

// GoalHandler manages learning goal endpoints.
type GoalHandler struct {
	service service.GoalService
	logger  zerolog.Logger
}

// NewGoalHandler builds a learning goal handler instance.
func NewGoalHandler(service service.GoalService, logger zerolog.Logger) *GoalHandler {
	return &GoalHandler{
		service: service,
		logger:  logger.With().Str("component", "goal_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *GoalHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *GoalHandler) list(c *fiber.Ctx) error {
	filter := dto.GoalFilter{}
	learnerID, err := parseQueryUint(c, "learner_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid learner_id")
	}
	filter.LearnerID = learnerID
	achieved, err := parseQueryBool(c, "achieved")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid achieved")
	}
	filter.Achieved = achieved

	goals, err := h.service.List(c.UserContext(), actorFromContext(c), filter)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "goals retrieved", goals)
}

func (h *GoalHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	goal, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "goal retrieved", goal)
}

func (h *GoalHandler) create(c *fiber.Ctx) error {
	var payload dto.GoalCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	goal, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "goal created", goal)
}

func (h *GoalHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GoalUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	goal, err := h.service.Update(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "goal updated", goal)
}

func (h *GoalHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "goal deleted", nil)
}
