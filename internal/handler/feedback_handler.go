package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/middleware"
	"github.com/noah-isme/aptrack-go-api/internal/service"
	"github.com/noah-isme/aptrack-go-api/internal/utils"
)

// FeedbackHandler manages feedback endpoints and the SSE delivery stream.
type FeedbackHandler struct {
	service  service.FeedbackService
	notifier service.Notifier
	logger   zerolog.Logger
	timeout  time.Duration
}

// NewFeedbackHandler builds a feedback handler instance.
func NewFeedbackHandler(service service.FeedbackService, notifier service.Notifier, logger zerolog.Logger, timeout time.Duration) *FeedbackHandler {
	return &FeedbackHandler{
		service:  service,
		notifier: notifier,
		logger:   logger.With().Str("component", "feedback_handler").Logger(),
		timeout:  timeout,
	}
}

// Register attaches the routes to the provided router group.
func (h *FeedbackHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", middleware.RateLimit("feedback-send", 30, time.Minute), h.send)
	router.Get("/stream", h.stream)
	router.Get("/:id", h.get)
}

func (h *FeedbackHandler) list(c *fiber.Ctx) error {
	actor := actorFromContext(c)

	recipientID := actor.ID
	if explicit, err := parseQueryUint(c, "recipient_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid recipient_id")
	} else if explicit != nil {
		recipientID = *explicit
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	items, err := h.service.ListForRecipient(c.UserContext(), actor, recipientID, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "feedback retrieved", items)
}

func (h *FeedbackHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	item, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "feedback retrieved", item)
}

func (h *FeedbackHandler) send(c *fiber.Ctx) error {
	var payload dto.FeedbackSendRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.service.Send(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "feedback sent", item)
}

func (h *FeedbackHandler) stream(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	if actor.ID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
	ctx, cancel := context.WithCancel(ctx)

	stream, cleanup := h.notifier.Subscribe(actor.ID)

	keepAliveInterval := h.timeout
	if keepAliveInterval <= 0 {
		keepAliveInterval = 30 * time.Second
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		ticker := time.NewTicker(keepAliveInterval / 2)
		defer ticker.Stop()

		for {
			select {
			case feedback, ok := <-stream:
				if !ok {
					return
				}
				if err := writeFeedbackEvent(w, feedback); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write feedback event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write feedback keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func writeFeedbackEvent(w *bufio.Writer, feedback dto.FeedbackResponse) error {
	payload, err := json.Marshal(feedback)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: feedback\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
