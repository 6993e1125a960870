package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/config"
	"github.com/noah-isme/aptrack-go-api/internal/database"
	"github.com/noah-isme/aptrack-go-api/internal/handler"
	"github.com/noah-isme/aptrack-go-api/internal/middleware"
	"github.com/noah-isme/aptrack-go-api/internal/models"
	"github.com/noah-isme/aptrack-go-api/internal/repository"
	"github.com/noah-isme/aptrack-go-api/internal/router"
	"github.com/noah-isme/aptrack-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.LearnerProfile{},
		&models.OtjLog{},
		&models.Evidence{},
		&models.Feedback{},
		&models.Task{},
		&models.LearningGoal{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	profileRepo := repository.NewProfileRepository(db)
	otjRepo := repository.NewOtjLogRepository(db)
	evidenceRepo := repository.NewEvidenceRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	resolver := authz.NewResolver(profileRepo)
	policy := authz.NewPolicy(resolver, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := service.NewNotifier(redisClient, natsConn, cfg.FeedbackChannel, logger)
	notifier.Start(ctx)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, policy, notifier, validate, logger)
	otjService := service.NewOtjService(otjRepo, policy, feedbackService, activityService, validate, logger)
	evidenceService := service.NewEvidenceService(evidenceRepo, policy, feedbackService, activityService, validate, logger)
	profileService := service.NewProfileService(profileRepo, policy, activityService, validate, logger)
	taskService := service.NewTaskService(taskRepo, policy, validate, logger)
	goalService := service.NewGoalService(goalRepo, policy, validate, logger)

	otjHandler := handler.NewOtjHandler(otjService, logger)
	evidenceHandler := handler.NewEvidenceHandler(evidenceService, logger)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, notifier, logger, 30*time.Second)
	profileHandler := handler.NewProfileHandler(profileService, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	goalHandler := handler.NewGoalHandler(goalService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		OtjHandler:      otjHandler,
		EvidenceHandler: evidenceHandler,
		FeedbackHandler: feedbackHandler,
		ProfileHandler:  profileHandler,
		TaskHandler:     taskHandler,
		GoalHandler:     goalHandler,
		ActivityHandler: activityHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
