package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/config"
	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/handler"
	"github.com/noah-isme/aptrack-go-api/internal/models"
	"github.com/noah-isme/aptrack-go-api/internal/repository"
	"github.com/noah-isme/aptrack-go-api/internal/router"
	"github.com/noah-isme/aptrack-go-api/internal/service"
)

func setupOtjApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.LearnerProfile{}, &models.OtjLog{}, &models.Feedback{}, &models.ActivityLog{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	profileRepo := repository.NewProfileRepository(db)
	otjRepo := repository.NewOtjLogRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	policy := authz.NewPolicy(authz.NewResolver(profileRepo), logger)
	notifier := service.NewNotifier(nil, nil, "aptrack", logger)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, policy, notifier, validate, logger)
	otjService := service.NewOtjService(otjRepo, policy, feedbackService, activityService, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		OtjHandler: handler.NewOtjHandler(otjService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			if id := c.Get("X-User-ID"); id != "" {
				c.Locals("user_id", id)
			}
			if role := c.Get("X-User-Role"); role != "" {
				c.Locals("user_role", role)
			}
			return c.Next()
		},
	})

	return app, db
}

func otjRequest(t *testing.T, app *fiber.App, method, path string, userID uint, role string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	req.Header.Set("X-User-Role", role)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeOtjData(t *testing.T, resp *http.Response) dto.OtjLogResponse {
	t.Helper()

	var envelope struct {
		Success bool               `json:"success"`
		Data    dto.OtjLogResponse `json:"data"`
		Message string             `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func TestOtjHandlerVerificationFlow(t *testing.T) {
	app, db := setupOtjApp(t)

	learner, assessor, iqa := uint(901), uint(902), uint(903)
	require.NoError(t, db.Create(&models.LearnerProfile{LearnerID: learner, TutorID: &assessor, IQAID: &iqa}).Error)

	resp := otjRequest(t, app, http.MethodPost, "/api/v1/otj-logs", learner, "learner", dto.OtjLogCreateRequest{
		Hours:        6,
		ActivityDate: time.Now().Add(-24 * time.Hour),
		Description:  "workshop shadowing",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeOtjData(t, resp)
	require.Equal(t, models.OtjStatusDraft, created.Status)

	base := fmt.Sprintf("/api/v1/otj-logs/%d", created.ID)

	resp = otjRequest(t, app, http.MethodPost, base+"/submit", learner, "learner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = otjRequest(t, app, http.MethodPost, base+"/verify", assessor, "assessor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verified := decodeOtjData(t, resp)
	require.Equal(t, models.OtjStatusApproved, verified.Status)
	require.NotNil(t, verified.VerifierID)
	require.Equal(t, assessor, *verified.VerifierID)

	resp = otjRequest(t, app, http.MethodPost, base+"/iqa-verify", iqa, "iqa", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stamped := decodeOtjData(t, resp)
	require.True(t, stamped.IQAVerified)
	require.NotNil(t, stamped.IQAVerifierID)
	require.Equal(t, iqa, *stamped.IQAVerifierID)
}

func TestOtjHandlerStatusMapping(t *testing.T) {
	app, db := setupOtjApp(t)

	learner, assessor, iqa := uint(911), uint(912), uint(913)
	stranger := uint(914)
	require.NoError(t, db.Create(&models.LearnerProfile{LearnerID: learner, TutorID: &assessor, IQAID: &iqa}).Error)

	// Validation failures surface as 400.
	resp := otjRequest(t, app, http.MethodPost, "/api/v1/otj-logs", learner, "learner", dto.OtjLogCreateRequest{
		Hours:        30,
		ActivityDate: time.Now(),
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = otjRequest(t, app, http.MethodPost, "/api/v1/otj-logs", learner, "learner", dto.OtjLogCreateRequest{
		Hours:        4,
		ActivityDate: time.Now(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeOtjData(t, resp)
	base := fmt.Sprintf("/api/v1/otj-logs/%d", created.ID)

	// Verifying a draft fails the submitted-state guard.
	resp = otjRequest(t, app, http.MethodPost, base+"/verify", assessor, "assessor", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = otjRequest(t, app, http.MethodPost, base+"/submit", learner, "learner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Replayed submit hits the state guard.
	resp = otjRequest(t, app, http.MethodPost, base+"/submit", learner, "learner", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Staff not linked to the learner are denied.
	resp = otjRequest(t, app, http.MethodPost, base+"/verify", stranger, "assessor", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// IQA cannot perform first-tier verification even when associated.
	resp = otjRequest(t, app, http.MethodPost, base+"/verify", iqa, "iqa", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Rejection without a message never moves the entry.
	resp = otjRequest(t, app, http.MethodPost, base+"/reject", assessor, "assessor", dto.OtjRejectRequest{Message: ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = otjRequest(t, app, http.MethodGet, base, learner, "learner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	current := decodeOtjData(t, resp)
	require.Equal(t, models.OtjStatusSubmitted, current.Status)

	resp = otjRequest(t, app, http.MethodGet, "/api/v1/otj-logs/999999", learner, "learner", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOtjHandlerListScoping(t *testing.T) {
	app, db := setupOtjApp(t)

	learner, assessor := uint(921), uint(922)
	require.NoError(t, db.Create(&models.LearnerProfile{LearnerID: learner, TutorID: &assessor}).Error)
	require.NoError(t, db.Create(&models.OtjLog{LearnerID: learner, Hours: 2, Status: models.OtjStatusDraft}).Error)

	// Staff must name a learner scope explicitly.
	resp := otjRequest(t, app, http.MethodGet, "/api/v1/otj-logs", assessor, "assessor", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = otjRequest(t, app, http.MethodGet, fmt.Sprintf("/api/v1/otj-logs?learner_id=%d", learner), assessor, "assessor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data []dto.OtjLogResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, learner, envelope.Data[0].LearnerID)
}
