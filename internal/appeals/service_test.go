package appeals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/club-pata-amiga/backend/internal/models"
)

// -------------------------
// Fake store (in-memory)
// -------------------------

type fakeStore struct {
	pets              map[uuid.UUID]*models.Pet
	logs              []models.AppealLog
	membershipByUser  map[uuid.UUID]models.MembershipStatus
	failOnUpdate      bool
	membershipUpdates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pets:             map[uuid.UUID]*models.Pet{},
		membershipByUser: map[uuid.UUID]models.MembershipStatus{},
	}
}

func (s *fakeStore) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	// Single-threaded tests: run against a snapshot, commit on success.
	snapshot := &fakeStore{
		pets:             map[uuid.UUID]*models.Pet{},
		logs:             append([]models.AppealLog(nil), s.logs...),
		membershipByUser: map[uuid.UUID]models.MembershipStatus{},
		failOnUpdate:     s.failOnUpdate,
	}
	for id, p := range s.pets {
		cp := *p
		snapshot.pets[id] = &cp
	}
	for id, st := range s.membershipByUser {
		snapshot.membershipByUser[id] = st
	}
	if err := fn(snapshot); err != nil {
		return err
	}
	s.pets = snapshot.pets
	s.logs = snapshot.logs
	s.membershipByUser = snapshot.membershipByUser
	s.membershipUpdates += snapshot.membershipUpdates
	return nil
}

func (s *fakeStore) GetPetForUpdate(ctx context.Context, petID uuid.UUID) (*models.Pet, error) {
	return s.pets[petID], nil
}

func (s *fakeStore) UpdatePet(ctx context.Context, p *models.Pet) error {
	if s.failOnUpdate {
		return assert.AnError
	}
	cp := *p
	s.pets[p.ID] = &cp
	return nil
}

func (s *fakeStore) CountUserAppeals(ctx context.Context, petID uuid.UUID) (int, error) {
	n := 0
	for _, l := range s.logs {
		if l.PetID == petID && l.Type == models.AppealLogUserAppeal {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) InsertLog(ctx context.Context, log *models.AppealLog) error {
	s.logs = append(s.logs, *log)
	return nil
}

func (s *fakeStore) ListPetStatuses(ctx context.Context, ownerID uuid.UUID) ([]models.PetStatus, error) {
	var out []models.PetStatus
	for _, p := range s.pets {
		if p.OwnerID == ownerID {
			out = append(out, p.Status)
		}
	}
	return out, nil
}

func (s *fakeStore) SetMembershipStatus(ctx context.Context, userID uuid.UUID, status models.MembershipStatus) error {
	s.membershipByUser[userID] = status
	s.membershipUpdates++
	return nil
}

type fakeNotifier struct {
	appeals       int
	statusChanges int
	lastPrevious  models.PetStatus
}

func (n *fakeNotifier) AppealSubmitted(ctx context.Context, pet *models.Pet, appealCount int) {
	n.appeals++
}

func (n *fakeNotifier) StatusChanged(ctx context.Context, pet *models.Pet, previous models.PetStatus, adminNotes string) {
	n.statusChanges++
	n.lastPrevious = previous
}

func addPet(s *fakeStore, owner uuid.UUID, status models.PetStatus) *models.Pet {
	p := &models.Pet{
		ID:      uuid.New(),
		OwnerID: owner,
		Name:    "Firulais",
		Status:  status,
	}
	s.pets[p.ID] = p
	return p
}

// -------------------------
// Tests
// -------------------------

func TestSubmitAppeal_MovesPetToAppealed(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	pet := addPet(store, owner, models.PetStatusRejected)

	notifier := &fakeNotifier{}
	svc := NewService(store, notifier)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	res, err := svc.SubmitAppeal(context.Background(), owner, pet.ID, "the vaccination card was uploaded correctly")
	require.NoError(t, err)

	assert.Equal(t, models.PetStatusAppealed, res.Pet.Status)
	assert.Equal(t, 1, res.AppealCount)
	assert.Equal(t, MaxAppealsPerPet, res.MaxAppeals)
	assert.Equal(t, now, *res.Pet.AppealedAt)
	assert.Equal(t, models.MembershipAppealed, store.membershipByUser[owner])
	assert.Len(t, store.logs, 1)
	assert.Equal(t, models.AppealLogUserAppeal, store.logs[0].Type)
	assert.Equal(t, 1, notifier.appeals)
}

func TestSubmitAppeal_RejectsShortMessage(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	pet := addPet(store, owner, models.PetStatusRejected)
	svc := NewService(store, nil)

	_, err := svc.SubmitAppeal(context.Background(), owner, pet.ID, "too short")
	assert.ErrorIs(t, err, ErrMessageTooShort)
	assert.Empty(t, store.logs)
}

func TestSubmitAppeal_MessageLengthCountsCharactersNotBytes(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	pet := addPet(store, owner, models.PetStatusRejected)
	svc := NewService(store, nil)

	// nine accented characters, eighteen bytes
	_, err := svc.SubmitAppeal(context.Background(), owner, pet.ID, "ñññññññññ")
	assert.ErrorIs(t, err, ErrMessageTooShort)

	// ten accented characters pass
	_, err = svc.SubmitAppeal(context.Background(), owner, pet.ID, "ññññññññññ")
	assert.NoError(t, err)
}

func TestSubmitAppeal_RejectsWrongState(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	svc := NewService(store, nil)

	for _, status := range []models.PetStatus{models.PetStatusPending, models.PetStatusApproved, models.PetStatusAppealed} {
		pet := addPet(store, owner, status)
		_, err := svc.SubmitAppeal(context.Background(), owner, pet.ID, "a long enough appeal message")
		assert.ErrorIs(t, err, ErrInvalidState, "status %s", status)
	}
}

func TestSubmitAppeal_EnforcesLimit(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	pet := addPet(store, owner, models.PetStatusRejected)
	svc := NewService(store, nil)

	for i := 0; i < MaxAppealsPerPet; i++ {
		_, err := svc.SubmitAppeal(context.Background(), owner, pet.ID, "a long enough appeal message")
		require.NoError(t, err)
		// Admin rejects again so the pet is appealable.
		store.pets[pet.ID].Status = models.PetStatusRejected
	}

	_, err := svc.SubmitAppeal(context.Background(), owner, pet.ID, "a long enough appeal message")
	assert.ErrorIs(t, err, ErrAppealLimitReached)

	count, _ := store.CountUserAppeals(context.Background(), pet.ID)
	assert.Equal(t, MaxAppealsPerPet, count, "no further increment past the limit")
}

func TestSubmitAppeal_RejectsForeignPet(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	pet := addPet(store, owner, models.PetStatusRejected)
	svc := NewService(store, nil)

	_, err := svc.SubmitAppeal(context.Background(), uuid.New(), pet.ID, "a long enough appeal message")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestResubmit_ActionRequiredReentersQueue(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	pet := addPet(store, owner, models.PetStatusActionRequired)
	svc := NewService(store, nil)

	name := "Firulais II"
	updated, err := svc.Resubmit(context.Background(), owner, pet.ID, ResubmitInput{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, models.PetStatusPending, updated.Status)
	assert.Equal(t, "Firulais II", updated.Name)
	assert.Equal(t, models.MembershipPending, store.membershipByUser[owner])
	require.Len(t, store.logs, 1)
	assert.Equal(t, models.AppealLogUserResubmission, store.logs[0].Type)

	count, _ := store.CountUserAppeals(context.Background(), pet.ID)
	assert.Zero(t, count, "resubmission does not consume an appeal slot")
}

func TestAdminSetStatus_RequiresNotesForRejection(t *testing.T) {
	store := newFakeStore()
	pet := addPet(store, uuid.New(), models.PetStatusPending)
	svc := NewService(store, nil)

	_, err := svc.AdminSetStatus(context.Background(), uuid.New(), pet.ID, models.PetStatusRejected, "  ")
	assert.ErrorIs(t, err, ErrNotesRequired)

	_, err = svc.AdminSetStatus(context.Background(), uuid.New(), pet.ID, models.PetStatusActionRequired, "")
	assert.ErrorIs(t, err, ErrNotesRequired)
}

func TestAdminSetStatus_RejectsUnknownStatus(t *testing.T) {
	store := newFakeStore()
	pet := addPet(store, uuid.New(), models.PetStatusPending)
	svc := NewService(store, nil)

	_, err := svc.AdminSetStatus(context.Background(), uuid.New(), pet.ID, models.PetStatus("bogus"), "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.AdminSetStatus(context.Background(), uuid.New(), pet.ID, models.PetStatusAppealed, "")
	assert.ErrorIs(t, err, ErrInvalidStatus, "admins cannot set appealed directly")
}

func TestAdminSetStatus_ApproveAppealedClearsAppealAndActivatesMember(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	pet := addPet(store, owner, models.PetStatusAppealed)
	appealedAt := time.Now()
	pet.AppealMessage = "please review the RUAC certificate again"
	pet.AppealedAt = &appealedAt

	notifier := &fakeNotifier{}
	svc := NewService(store, notifier)

	updated, err := svc.AdminSetStatus(context.Background(), uuid.New(), pet.ID, models.PetStatusApproved, "")
	require.NoError(t, err)

	assert.Equal(t, models.PetStatusApproved, updated.Status)
	assert.Empty(t, updated.AppealMessage)
	assert.Nil(t, updated.AppealedAt)
	// Only pet was appealed, so the member becomes active.
	assert.Equal(t, models.MembershipActive, store.membershipByUser[owner])
	require.Len(t, store.logs, 1)
	assert.Equal(t, models.AppealLogAppealApproved, store.logs[0].Type)
	assert.Equal(t, 1, notifier.statusChanges)
	assert.Equal(t, models.PetStatusAppealed, notifier.lastPrevious)
}

func TestAdminSetStatus_RejectAppealedLogsAppealRejected(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	pet := addPet(store, owner, models.PetStatusAppealed)
	svc := NewService(store, nil)

	updated, err := svc.AdminSetStatus(context.Background(), uuid.New(), pet.ID, models.PetStatusRejected, "documents do not match the registered pet")
	require.NoError(t, err)

	assert.Equal(t, models.PetStatusRejected, updated.Status)
	assert.Equal(t, models.MembershipRejected, store.membershipByUser[owner])
	require.Len(t, store.logs, 1)
	assert.Equal(t, models.AppealLogAppealRejected, store.logs[0].Type)
}

func TestAdminSetStatus_FailedUpdateRollsBack(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	pet := addPet(store, owner, models.PetStatusAppealed)
	store.failOnUpdate = true
	svc := NewService(store, nil)

	_, err := svc.AdminSetStatus(context.Background(), uuid.New(), pet.ID, models.PetStatusApproved, "")
	require.Error(t, err)

	assert.Equal(t, models.PetStatusAppealed, store.pets[pet.ID].Status, "status unchanged after rollback")
	assert.Empty(t, store.logs)
	assert.Zero(t, store.membershipUpdates)
}
