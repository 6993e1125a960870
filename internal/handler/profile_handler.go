package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/middleware"
	"github.com/noah-isme/aptrack-go-api/internal/service"
	"github.com/noah-isme/aptrack-go-api/internal/utils"
)

// ProfileHandler manages learner profile endpoints.
type ProfileHandler struct {
	service service.ProfileService
	logger  zerolog.Logger
}

// NewProfileHandler builds a profile handler instance.
func NewProfileHandler(service service.ProfileService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With().Str("component", "profile_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Provisioning
// and association changes are fenced to elevated staff at the route level.
func (h *ProfileHandler) Register(router fiber.Router) {
	router.Post("", middleware.WithAuth(h.create, middleware.AuthOptions{Tier: middleware.AuthTierStaff}))
	router.Get("/:learnerId", h.get)
	router.Patch("/:learnerId/associations", middleware.WithAuth(h.assignAssociations, middleware.AuthOptions{Tier: middleware.AuthTierStaff}))
}

func (h *ProfileHandler) get(c *fiber.Ctx) error {
	learnerID, err := parseUintParam(c, "learnerId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	profile, err := h.service.Get(c.UserContext(), actorFromContext(c), learnerID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *ProfileHandler) create(c *fiber.Ctx) error {
	var payload dto.ProfileCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "profile created", profile)
}

func (h *ProfileHandler) assignAssociations(c *fiber.Ctx) error {
	learnerID, err := parseUintParam(c, "learnerId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssociationPatchRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := h.service.AssignAssociations(c.UserContext(), actorFromContext(c), learnerID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "associations updated", profile)
}
