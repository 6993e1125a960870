package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/models"
	"github.com/noah-isme/aptrack-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func uintPtr(v uint) *uint {
	return &v
}

// fakeProfiles backs the access policy in service tests.
type fakeProfiles map[uint]authz.Associations

func (f fakeProfiles) Associations(_ context.Context, learnerID uint) (authz.Associations, error) {
	assoc, ok := f[learnerID]
	if !ok {
		return authz.Associations{}, authz.ErrProfileNotFound
	}
	return assoc, nil
}

func testPolicy(profiles fakeProfiles) *authz.Policy {
	return authz.NewPolicy(authz.NewResolver(profiles), testLogger())
}

// fakeOtjRepo mirrors the guarded-update semantics of the real repository
// against an in-memory map.
type fakeOtjRepo struct {
	mu       sync.Mutex
	nextID   uint
	logs     map[uint]models.OtjLog
	feedback []models.Feedback
}

func newFakeOtjRepo() *fakeOtjRepo {
	return &fakeOtjRepo{nextID: 1, logs: map[uint]models.OtjLog{}}
}

func (r *fakeOtjRepo) seed(log models.OtjLog) models.OtjLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log.ID == 0 {
		log.ID = r.nextID
	}
	if log.ID >= r.nextID {
		r.nextID = log.ID + 1
	}
	r.logs[log.ID] = log
	return log
}

func (r *fakeOtjRepo) List(_ context.Context, filter repository.OtjLogFilter) ([]models.OtjLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []models.OtjLog{}
	for _, log := range r.logs {
		if filter.LearnerID != nil && log.LearnerID != *filter.LearnerID {
			continue
		}
		if filter.Status != nil && log.Status != *filter.Status {
			continue
		}
		result = append(result, log)
	}
	return result, nil
}

func (r *fakeOtjRepo) GetByID(_ context.Context, id uint) (models.OtjLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log, ok := r.logs[id]
	if !ok {
		return models.OtjLog{}, gorm.ErrRecordNotFound
	}
	return log, nil
}

func (r *fakeOtjRepo) Create(_ context.Context, log *models.OtjLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.ID = r.nextID
	r.nextID++
	r.logs[log.ID] = *log
	return nil
}

func (r *fakeOtjRepo) Update(_ context.Context, log *models.OtjLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[log.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.logs[log.ID] = *log
	return nil
}

func (r *fakeOtjRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.logs, id)
	return nil
}

func (r *fakeOtjRepo) TransitionFrom(_ context.Context, id uint, fromStatus string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyGuarded(id, fromStatus, updates)
}

func (r *fakeOtjRepo) StampIQA(_ context.Context, id uint, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log, ok := r.logs[id]
	if !ok || log.Status != models.OtjStatusApproved || log.VerifierID == nil || log.IQAVerifierID != nil {
		return authz.ErrInvalidState
	}
	r.applyOtjUpdates(&log, updates)
	r.logs[id] = log
	return nil
}

func (r *fakeOtjRepo) RejectWithFeedback(_ context.Context, id uint, fromStatus string, updates map[string]interface{}, feedback *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.applyGuarded(id, fromStatus, updates); err != nil {
		return err
	}
	feedback.ID = uint(len(r.feedback) + 1)
	r.feedback = append(r.feedback, *feedback)
	return nil
}

func (r *fakeOtjRepo) applyGuarded(id uint, fromStatus string, updates map[string]interface{}) error {
	log, ok := r.logs[id]
	if !ok || log.Status != fromStatus {
		return authz.ErrInvalidState
	}
	r.applyOtjUpdates(&log, updates)
	r.logs[id] = log
	return nil
}

func (r *fakeOtjRepo) applyOtjUpdates(log *models.OtjLog, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			log.Status = value.(string)
		case "verifier_id":
			id := value.(uint)
			log.VerifierID = &id
		case "verification_date":
			at := value.(time.Time)
			log.VerificationDate = &at
		case "iqa_verifier_id":
			id := value.(uint)
			log.IQAVerifierID = &id
		case "iqa_verification_date":
			at := value.(time.Time)
			log.IQAVerificationDate = &at
		}
	}
}

// fakeEvidenceRepo mirrors the evidence repository semantics in memory.
type fakeEvidenceRepo struct {
	mu       sync.Mutex
	nextID   uint
	items    map[uint]models.Evidence
	feedback []models.Feedback
}

func newFakeEvidenceRepo() *fakeEvidenceRepo {
	return &fakeEvidenceRepo{nextID: 1, items: map[uint]models.Evidence{}}
}

func (r *fakeEvidenceRepo) seed(item models.Evidence) models.Evidence {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == 0 {
		item.ID = r.nextID
	}
	if item.ID >= r.nextID {
		r.nextID = item.ID + 1
	}
	r.items[item.ID] = item
	return item
}

func (r *fakeEvidenceRepo) List(_ context.Context, filter repository.EvidenceFilter) ([]models.Evidence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []models.Evidence{}
	for _, item := range r.items {
		if filter.LearnerID != nil && item.LearnerID != *filter.LearnerID {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

func (r *fakeEvidenceRepo) GetByID(_ context.Context, id uint) (models.Evidence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return models.Evidence{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeEvidenceRepo) Create(_ context.Context, item *models.Evidence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = *item
	return nil
}

func (r *fakeEvidenceRepo) Update(_ context.Context, item *models.Evidence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.items[item.ID] = *item
	return nil
}

func (r *fakeEvidenceRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakeEvidenceRepo) TransitionFrom(_ context.Context, id uint, fromStatus string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyGuarded(id, fromStatus, updates)
}

func (r *fakeEvidenceRepo) ReviseWithFeedback(_ context.Context, id uint, fromStatus string, updates map[string]interface{}, feedback *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.applyGuarded(id, fromStatus, updates); err != nil {
		return err
	}
	feedback.ID = uint(len(r.feedback) + 1)
	r.feedback = append(r.feedback, *feedback)
	return nil
}

func (r *fakeEvidenceRepo) applyGuarded(id uint, fromStatus string, updates map[string]interface{}) error {
	item, ok := r.items[id]
	if !ok || item.Status != fromStatus {
		return authz.ErrInvalidState
	}
	for key, value := range updates {
		switch key {
		case "status":
			item.Status = value.(string)
		case "reviewer_id":
			reviewerID := value.(uint)
			item.ReviewerID = &reviewerID
		case "approved_at":
			at := value.(time.Time)
			item.ApprovedAt = &at
		}
	}
	r.items[id] = item
	return nil
}

// fakeFeedbackRepo stores feedback in memory.
type fakeFeedbackRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]models.Feedback
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{nextID: 1, records: map[uint]models.Feedback{}}
}

func (r *fakeFeedbackRepo) Create(_ context.Context, feedback *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	feedback.ID = r.nextID
	r.nextID++
	r.records[feedback.ID] = *feedback
	return nil
}

func (r *fakeFeedbackRepo) GetByID(_ context.Context, id uint) (models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return models.Feedback{}, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (r *fakeFeedbackRepo) ListByRecipient(_ context.Context, recipientID uint, _, _ int) ([]models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []models.Feedback{}
	for _, record := range r.records {
		if record.RecipientID == recipientID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (r *fakeFeedbackRepo) ListByRelatedItem(_ context.Context, itemType string, itemID uint) ([]models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []models.Feedback{}
	for _, record := range r.records {
		if record.RelatedItemType == itemType && record.RelatedItemID == itemID {
			result = append(result, record)
		}
	}
	return result, nil
}

// fakeActivityRepo captures audit writes.
type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []models.ActivityLog
}

func (r *fakeActivityRepo) Create(_ context.Context, entry *models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeActivityRepo) List(_ context.Context, _ repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ActivityLog{}, r.entries...), int64(len(r.entries)), nil
}

// capturingNotifier records deliveries for assertions.
type capturingNotifier struct {
	mu        sync.Mutex
	delivered []dto.FeedbackResponse
}

func (n *capturingNotifier) Notify(_ context.Context, feedback dto.FeedbackResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, feedback)
}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.delivered)
}
