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

// EvidenceHandler manages portfolio evidence endpoints.
type EvidenceHandler struct {
	service service.EvidenceService
	logger  zerolog.Logger
}

// NewEvidenceHandler builds an evidence handler instance.
func NewEvidenceHandler(service service.EvidenceService, logger zerolog.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		service: service,
		logger:  logger.With().Str("component", "evidence_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *EvidenceHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/submit", h.submit)
	router.Post("/:id/start-review", h.startReview)
	router.Post("/:id/approve", h.approve)
	router.Post("/:id/request-revision", h.requestRevision)
}

func (h *EvidenceHandler) list(c *fiber.Ctx) error {
	filter := dto.EvidenceFilter{}
	learnerID, err := parseQueryUint(c, "learner_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid learner_id")
	}
	filter.LearnerID = learnerID
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	items, err := h.service.List(c.UserContext(), actorFromContext(c), filter)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evidence retrieved", items)
}

func (h *EvidenceHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	item, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evidence retrieved", item)
}

func (h *EvidenceHandler) create(c *fiber.Ctx) error {
	var payload dto.EvidenceCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evidence created", item)
}

func (h *EvidenceHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvidenceUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.service.UpdateContent(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evidence updated", item)
}

func (h *EvidenceHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evidence deleted", nil)
}

func (h *EvidenceHandler) submit(c *fiber.Ctx) error {
	return h.transition(c, h.service.Submit, "evidence submitted")
}

func (h *EvidenceHandler) startReview(c *fiber.Ctx) error {
	return h.transition(c, h.service.StartReview, "evidence review started")
}

func (h *EvidenceHandler) approve(c *fiber.Ctx) error {
	return h.transition(c, h.service.Approve, "evidence approved")
}

func (h *EvidenceHandler) requestRevision(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvidenceRevisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.service.RequestRevision(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evidence revision requested", item)
}

type evidenceTransition func(ctx context.Context, actor authz.Actor, id uint) (dto.EvidenceResponse, error)

func (h *EvidenceHandler) transition(c *fiber.Ctx, apply evidenceTransition, message string) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	item, err := apply(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, message, item)
}
