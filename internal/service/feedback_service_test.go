package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aptrack-go-api/internal/authz"
	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/models"
)

func newFeedbackFixture(t *testing.T) (*fakeFeedbackRepo, FeedbackService, *capturingNotifier) {
	t.Helper()

	repo := newFakeFeedbackRepo()
	notifier := &capturingNotifier{}
	svc := NewFeedbackService(repo, testPolicy(standardProfiles()), notifier, testValidator(), testLogger())
	return repo, svc, notifier
}

func TestFeedbackComposeSanitizesMarkup(t *testing.T) {
	_, svc, _ := newFeedbackFixture(t)

	feedback, err := svc.Compose(assessorID, learnerID, models.FeedbackItemOtjLog, 5, "  <b>needs</b> more detail  ")
	require.NoError(t, err)
	require.Equal(t, "needs more detail", feedback.Message)
	require.Equal(t, assessorID, feedback.SenderID)
	require.Equal(t, learnerID, feedback.RecipientID)
}

func TestFeedbackComposeEmptyAfterSanitize(t *testing.T) {
	_, svc, _ := newFeedbackFixture(t)

	_, err := svc.Compose(assessorID, learnerID, models.FeedbackItemOtjLog, 5, "<img src=x>")
	require.ErrorIs(t, err, ErrEmptyFeedbackMessage)

	_, err = svc.Compose(assessorID, learnerID, models.FeedbackItemOtjLog, 5, "   ")
	require.ErrorIs(t, err, ErrEmptyFeedbackMessage)
}

func TestFeedbackSendStaffOnly(t *testing.T) {
	_, svc, _ := newFeedbackFixture(t)

	_, err := svc.Send(context.Background(), authz.Actor{ID: learnerID, Role: authz.RoleLearner}, dto.FeedbackSendRequest{
		RecipientID: strangerID,
		Message:     "hello",
	})
	require.True(t, authz.IsDenied(err))
}

func TestFeedbackSendRequiresAssociation(t *testing.T) {
	_, svc, _ := newFeedbackFixture(t)

	_, err := svc.Send(context.Background(), authz.Actor{ID: strangerID, Role: authz.RoleAssessor}, dto.FeedbackSendRequest{
		RecipientID: learnerID,
		Message:     "keep it up",
	})
	require.True(t, authz.IsDenied(err))
}

func TestFeedbackSendDeliversAndDefaultsType(t *testing.T) {
	repo, svc, notifier := newFeedbackFixture(t)

	sent, err := svc.Send(context.Background(), authz.Actor{ID: assessorID, Role: authz.RoleAssessor}, dto.FeedbackSendRequest{
		RecipientID: learnerID,
		Message:     "good progress this month",
	})
	require.NoError(t, err)
	require.Equal(t, models.FeedbackItemGeneral, sent.RelatedItemType)
	require.Equal(t, 1, notifier.count())

	stored, err := repo.GetByID(context.Background(), sent.ID)
	require.NoError(t, err)
	require.Equal(t, "good progress this month", stored.Message)
}

func TestFeedbackGetVisibleToRecipientAndSenderAssociation(t *testing.T) {
	repo, svc, _ := newFeedbackFixture(t)

	record := models.Feedback{SenderID: assessorID, RecipientID: learnerID, Message: "m", RelatedItemType: models.FeedbackItemGeneral}
	require.NoError(t, repo.Create(context.Background(), &record))

	_, err := svc.Get(context.Background(), authz.Actor{ID: learnerID, Role: authz.RoleLearner}, record.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), authz.Actor{ID: assessorID, Role: authz.RoleAssessor}, record.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), authz.Actor{ID: strangerID, Role: authz.RoleLearner}, record.ID)
	require.True(t, authz.IsDenied(err))
}

func TestFeedbackListForRecipientScoped(t *testing.T) {
	repo, svc, _ := newFeedbackFixture(t)

	first := models.Feedback{SenderID: assessorID, RecipientID: learnerID, Message: "a"}
	second := models.Feedback{SenderID: assessorID, RecipientID: strangerID, Message: "b"}
	require.NoError(t, repo.Create(context.Background(), &first))
	require.NoError(t, repo.Create(context.Background(), &second))

	own, err := svc.ListForRecipient(context.Background(), authz.Actor{ID: learnerID, Role: authz.RoleLearner}, learnerID, 10, 0)
	require.NoError(t, err)
	require.Len(t, own, 1)

	_, err = svc.ListForRecipient(context.Background(), authz.Actor{ID: learnerID, Role: authz.RoleLearner}, strangerID, 10, 0)
	require.True(t, authz.IsDenied(err))
}
