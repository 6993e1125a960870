package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/aptrack-go-api/internal/config"
	"github.com/noah-isme/aptrack-go-api/internal/handler"
	"github.com/noah-isme/aptrack-go-api/internal/middleware"
	"github.com/noah-isme/aptrack-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	OtjHandler      *handler.OtjHandler
	EvidenceHandler *handler.EvidenceHandler
	FeedbackHandler *handler.FeedbackHandler
	ProfileHandler  *handler.ProfileHandler
	TaskHandler     *handler.TaskHandler
	GoalHandler     *handler.GoalHandler
	ActivityHandler *handler.ActivityHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.OtjHandler != nil {
		otj := api.Group("/otj-logs", jwtMiddleware)
		deps.OtjHandler.Register(otj)
	}

	if deps.EvidenceHandler != nil {
		evidence := api.Group("/evidence", jwtMiddleware)
		deps.EvidenceHandler.Register(evidence)
	}

	if deps.FeedbackHandler != nil {
		feedback := api.Group("/feedback", jwtMiddleware)
		deps.FeedbackHandler.Register(feedback)
	}

	if deps.ProfileHandler != nil {
		profiles := api.Group("/profiles", jwtMiddleware)
		deps.ProfileHandler.Register(profiles)
	}

	if deps.TaskHandler != nil {
		tasks := api.Group("/tasks", jwtMiddleware)
		deps.TaskHandler.Register(tasks)
	}

	if deps.GoalHandler != nil {
		goals := api.Group("/goals", jwtMiddleware)
		deps.GoalHandler.Register(goals)
	}

	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, middleware.RequireElevated())
		deps.ActivityHandler.Register(activity)
	}
}
