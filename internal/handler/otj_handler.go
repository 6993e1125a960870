package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/service"
	"github.com/noah-isme/aptrack-go-api/internal/utils"
)

// OtjHandler manages off-the-job training log endpoints.
type OtjHandler struct {
	service service.OtjService
	logger  zerolog.Logger
}

// NewOtjHandler builds an OTJ log handler instance.
func NewOtjHandler(service service.OtjService, logger zerolog.Logger) *OtjHandler {
	return &OtjHandler{
		service: service,
		logger:  logger.With().Str("component", "otj_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *OtjHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/submit", h.submit)
	router.Post("/:id/verify", h.verify)
	router.Post("/:id/iqa-verify", h.iqaVerify)
	router.Post("/:id/reject", h.reject)
}

func (h *OtjHandler) list(c *fiber.Ctx) error {
	filter := dto.OtjLogFilter{}
	learnerID, err := parseQueryUint(c, "learner_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid learner_id")
	}
	filter.LearnerID = learnerID
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	logs, err := h.service.List(c.UserContext(), actorFromContext(c), filter)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "otj logs retrieved", logs)
}

func (h *OtjHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	log, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "otj log retrieved", log)
}

func (h *OtjHandler) create(c *fiber.Ctx) error {
	var payload dto.OtjLogCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	log, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "otj log created", log)
}

func (h *OtjHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.OtjLogUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	log, err := h.service.Update(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "otj log updated", log)
}

func (h *OtjHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "otj log deleted", nil)
}

func (h *OtjHandler) submit(c *fiber.Ctx) error {
	return h.transition(c, h.service.Submit, "otj log submitted")
}

func (h *OtjHandler) verify(c *fiber.Ctx) error {
	return h.transition(c, h.service.Verify, "otj log verified")
}

func (h *OtjHandler) iqaVerify(c *fiber.Ctx) error {
	return h.transition(c, h.service.IQAVerify, "otj log iqa verified")
}

func (h *OtjHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.OtjRejectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	log, err := h.service.Reject(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "otj log rejected", log)
}

type otjTransition func(ctx context.Context, actor authz.Actor, id uint) (dto.OtjLogResponse, error)

func (h *OtjHandler) transition(c *fiber.Ctx, apply otjTransition, message string) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	log, err := apply(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, message, log)
}
