package notifications

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/pkg/queue"
)

type fakeStore struct {
	created []models.Notification
	err     error
}

func (f *fakeStore) Create(_ context.Context, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	n.ID = uuid.New()
	f.created = append(f.created, *n)
	return nil
}

type fakeEmailQueue struct {
	enqueued []queue.EmailPayload
	err      error
}

func (f *fakeEmailQueue) EnqueueEmail(_ context.Context, p queue.EmailPayload) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, p)
	return nil
}

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f.users[id], nil
}

func newTestNotifier() (*Notifier, *fakeStore, *fakeEmailQueue, uuid.UUID) {
	userID := uuid.New()
	store := &fakeStore{}
	jobs := &fakeEmailQueue{}
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "maria@example.com", FullName: "Maria Lopez"},
	}}
	return NewNotifier(store, users, jobs, nil, nil), store, jobs, userID
}

func TestStatusChanged_AppealDecisionSendsResolutionEmail(t *testing.T) {
	n, store, jobs, owner := newTestNotifier()
	pet := &models.Pet{ID: uuid.New(), OwnerID: owner, Name: "Luna", Status: models.PetStatusApproved}

	n.StatusChanged(context.Background(), pet, models.PetStatusAppealed, "")

	require.Len(t, store.created, 1)
	assert.Equal(t, models.NotificationAppealResolved, store.created[0].Type)
	assert.Equal(t, "Appeal approved", store.created[0].Title)

	require.Len(t, jobs.enqueued, 1)
	mail := jobs.enqueued[0]
	assert.Equal(t, models.EmailTypeAppealResolved, mail.EmailType)
	assert.Equal(t, "maria@example.com", mail.RecipientEmail)
	assert.Equal(t, "Appeal approved", mail.Subject)
	assert.Contains(t, mail.BodyHTML, "Maria Lopez")
	require.NotNil(t, mail.UserID)
	assert.Equal(t, owner, *mail.UserID)
}

func TestStatusChanged_RejectedAppealStillResolvesAppeal(t *testing.T) {
	n, store, jobs, owner := newTestNotifier()
	pet := &models.Pet{ID: uuid.New(), OwnerID: owner, Name: "Luna", Status: models.PetStatusRejected}

	n.StatusChanged(context.Background(), pet, models.PetStatusAppealed, "missing vaccination card")

	require.Len(t, store.created, 1)
	assert.Equal(t, models.NotificationAppealResolved, store.created[0].Type)
	require.Len(t, jobs.enqueued, 1)
	assert.Equal(t, models.EmailTypeAppealResolved, jobs.enqueued[0].EmailType)
	assert.Contains(t, jobs.enqueued[0].BodyHTML, "missing vaccination card")
}

func TestAppealSubmitted_InsertsNotificationWithoutEmail(t *testing.T) {
	n, store, jobs, owner := newTestNotifier()
	pet := &models.Pet{ID: uuid.New(), OwnerID: owner, Name: "Luna", Status: models.PetStatusAppealed}

	n.AppealSubmitted(context.Background(), pet, 1)

	require.Len(t, store.created, 1)
	assert.Equal(t, models.NotificationAppealReceived, store.created[0].Type)
	assert.Empty(t, jobs.enqueued)
}

func TestPayoutRequested_NotifiesAndEmailsAmbassador(t *testing.T) {
	n, store, jobs, userID := newTestNotifier()
	payout := &models.Payout{ID: uuid.New(), Amount: 150, Status: models.PayoutPending}

	n.PayoutRequested(context.Background(), userID, payout)

	require.Len(t, store.created, 1)
	assert.Equal(t, models.NotificationPayoutRequested, store.created[0].Type)
	require.Len(t, jobs.enqueued, 1)
	assert.Equal(t, models.EmailTypePayoutUpdate, jobs.enqueued[0].EmailType)
	assert.Contains(t, jobs.enqueued[0].BodyHTML, "150.00")
}

func TestPayoutResolved_PaidAndRejectedOutcomes(t *testing.T) {
	n, store, jobs, userID := newTestNotifier()

	n.PayoutResolved(context.Background(), userID, &models.Payout{ID: uuid.New(), Amount: 80, Status: models.PayoutPaid})
	n.PayoutResolved(context.Background(), userID, &models.Payout{ID: uuid.New(), Amount: 80, Status: models.PayoutRejected})

	require.Len(t, store.created, 2)
	assert.Equal(t, models.NotificationPayoutPaid, store.created[0].Type)
	assert.Equal(t, models.NotificationAmbassadorUpdated, store.created[1].Type)
	require.Len(t, jobs.enqueued, 2)
	assert.Equal(t, models.EmailTypePayoutUpdate, jobs.enqueued[0].EmailType)
	assert.Contains(t, jobs.enqueued[1].BodyHTML, "rejected")
}

func TestDeliver_FeedInsertFailureStillEmails(t *testing.T) {
	n, store, jobs, owner := newTestNotifier()
	store.err = assert.AnError
	pet := &models.Pet{ID: uuid.New(), OwnerID: owner, Name: "Luna", Status: models.PetStatusApproved}

	n.StatusChanged(context.Background(), pet, models.PetStatusPending, "")

	assert.Empty(t, store.created)
	require.Len(t, jobs.enqueued, 1)
	assert.Equal(t, models.EmailTypePetApproved, jobs.enqueued[0].EmailType)
}
