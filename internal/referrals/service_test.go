package referrals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/club-pata-amiga/backend/internal/models"
)

// -------------------------
// Fake store (in-memory)
// -------------------------

type fakeStore struct {
	ambassadors map[uuid.UUID]*models.Ambassador
	referrals   map[uuid.UUID]*models.Referral
	failInsert  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ambassadors: map[uuid.UUID]*models.Ambassador{},
		referrals:   map[uuid.UUID]*models.Referral{},
	}
}

func (s *fakeStore) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	// Single-threaded tests: run against a snapshot, commit on success.
	snapshot := &fakeStore{
		ambassadors: map[uuid.UUID]*models.Ambassador{},
		referrals:   map[uuid.UUID]*models.Referral{},
		failInsert:  s.failInsert,
	}
	for id, a := range s.ambassadors {
		cp := *a
		snapshot.ambassadors[id] = &cp
	}
	for id, r := range s.referrals {
		cp := *r
		snapshot.referrals[id] = &cp
	}
	if err := fn(snapshot); err != nil {
		return err
	}
	s.ambassadors = snapshot.ambassadors
	s.referrals = snapshot.referrals
	return nil
}

func (s *fakeStore) GetAmbassadorByCodeForUpdate(ctx context.Context, code string) (*models.Ambassador, error) {
	for _, a := range s.ambassadors {
		if a.ReferralCode == code {
			return a, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetAmbassadorForUpdate(ctx context.Context, id uuid.UUID) (*models.Ambassador, error) {
	return s.ambassadors[id], nil
}

func (s *fakeStore) UpdateAmbassadorBalances(ctx context.Context, a *models.Ambassador) error {
	cp := *a
	s.ambassadors[a.ID] = &cp
	return nil
}

func (s *fakeStore) GetReferralByReferredUser(ctx context.Context, referredUserID string) (*models.Referral, error) {
	for _, r := range s.referrals {
		if r.ReferredUserID == referredUserID {
			return r, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetReferralForUpdate(ctx context.Context, id uuid.UUID) (*models.Referral, error) {
	return s.referrals[id], nil
}

func (s *fakeStore) InsertReferral(ctx context.Context, ref *models.Referral) error {
	if s.failInsert {
		return assert.AnError
	}
	ref.ID = uuid.New()
	cp := *ref
	s.referrals[ref.ID] = &cp
	return nil
}

func (s *fakeStore) UpdateReferral(ctx context.Context, ref *models.Referral) error {
	cp := *ref
	s.referrals[ref.ID] = &cp
	return nil
}

type fakeNotifier struct {
	recorded int
	lastUser uuid.UUID
}

func (n *fakeNotifier) ReferralRecorded(ctx context.Context, userID uuid.UUID, ref *models.Referral) {
	n.recorded++
	n.lastUser = userID
}

func addAmbassador(s *fakeStore, status models.AmbassadorStatus, pct float64) *models.Ambassador {
	a := &models.Ambassador{
		ID:                   uuid.New(),
		UserID:               uuid.New(),
		ReferralCode:         "PATA-" + uuid.New().String()[:8],
		CommissionPercentage: pct,
		Status:               status,
	}
	s.ambassadors[a.ID] = a
	return a
}

// -------------------------
// Create
// -------------------------

func TestCreate_CreditsPendingPayoutOnce(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	amb := addAmbassador(store, models.AmbassadorApproved, 10)
	svc := NewService(store, notifier)

	ref, err := svc.Create(context.Background(), CreateInput{
		ReferralCode:     amb.ReferralCode,
		ReferredUserID:   "mem_abc123",
		MembershipPlan:   "annual",
		MembershipAmount: 1000,
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, ref.CommissionAmount)
	assert.Equal(t, 10.0, ref.CommissionPercentage)
	assert.Equal(t, models.CommissionPending, ref.CommissionStatus)
	assert.Equal(t, 100.0, store.ambassadors[amb.ID].PendingPayout)
	assert.Equal(t, 0.0, store.ambassadors[amb.ID].TotalEarnings)
	assert.Equal(t, 1, notifier.recorded)
	assert.Equal(t, amb.UserID, notifier.lastUser)
}

func TestCreate_RejectsDuplicateReferredUser(t *testing.T) {
	store := newFakeStore()
	amb := addAmbassador(store, models.AmbassadorApproved, 10)
	svc := NewService(store, nil)

	in := CreateInput{ReferralCode: amb.ReferralCode, ReferredUserID: "mem_dup", MembershipAmount: 500}
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrDuplicateReferral)
	assert.Equal(t, 50.0, store.ambassadors[amb.ID].PendingPayout)
}

func TestCreate_RejectsUnknownCodeAndInactiveAmbassador(t *testing.T) {
	store := newFakeStore()
	pending := addAmbassador(store, models.AmbassadorPending, 10)
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		ReferralCode: "PATA-NOPE", ReferredUserID: "mem_1", MembershipAmount: 100,
	})
	assert.ErrorIs(t, err, ErrCodeNotFound)

	_, err = svc.Create(context.Background(), CreateInput{
		ReferralCode: pending.ReferralCode, ReferredUserID: "mem_1", MembershipAmount: 100,
	})
	assert.ErrorIs(t, err, ErrAmbassadorInactive)
}

func TestCreate_RejectsNonPositiveAmount(t *testing.T) {
	store := newFakeStore()
	amb := addAmbassador(store, models.AmbassadorApproved, 10)
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		ReferralCode: amb.ReferralCode, ReferredUserID: "mem_1", MembershipAmount: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreate_FailedInsertLeavesBalanceUntouched(t *testing.T) {
	store := newFakeStore()
	store.failInsert = true
	amb := addAmbassador(store, models.AmbassadorApproved, 10)
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		ReferralCode: amb.ReferralCode, ReferredUserID: "mem_1", MembershipAmount: 100,
	})
	require.Error(t, err)
	assert.Equal(t, 0.0, store.ambassadors[amb.ID].PendingPayout)
}

// -------------------------
// Update
// -------------------------

func createReferral(t *testing.T, svc *Service, amb *models.Ambassador, userID string, amount float64) *models.Referral {
	t.Helper()
	ref, err := svc.Create(context.Background(), CreateInput{
		ReferralCode:     amb.ReferralCode,
		ReferredUserID:   userID,
		MembershipAmount: amount,
	})
	require.NoError(t, err)
	return ref
}

func TestUpdate_AmountChangeAppliesOnlyTheDifference(t *testing.T) {
	store := newFakeStore()
	amb := addAmbassador(store, models.AmbassadorApproved, 10)
	svc := NewService(store, nil)
	ref := createReferral(t, svc, amb, "mem_1", 1000) // pending 100

	newAmount := 1500.0
	updated, err := svc.Update(context.Background(), ref.ID, UpdateInput{MembershipAmount: &newAmount})
	require.NoError(t, err)

	assert.Equal(t, 150.0, updated.CommissionAmount)
	assert.Equal(t, 150.0, store.ambassadors[amb.ID].PendingPayout)
	assert.Equal(t, 0.0, store.ambassadors[amb.ID].TotalEarnings)
}

func TestUpdate_ApprovalCreditsEarningsExactlyOnce(t *testing.T) {
	store := newFakeStore()
	amb := addAmbassador(store, models.AmbassadorApproved, 10)
	svc := NewService(store, nil)
	ref := createReferral(t, svc, amb, "mem_1", 1000)

	approved := models.CommissionApproved
	updated, err := svc.Update(context.Background(), ref.ID, UpdateInput{CommissionStatus: &approved})
	require.NoError(t, err)
	assert.Equal(t, models.CommissionApproved, updated.CommissionStatus)
	assert.Equal(t, 100.0, store.ambassadors[amb.ID].TotalEarnings)
	assert.Equal(t, 100.0, store.ambassadors[amb.ID].PendingPayout)

	// A second approval attempt must not credit again.
	_, err = svc.Update(context.Background(), ref.ID, UpdateInput{CommissionStatus: &approved})
	require.NoError(t, err)
	assert.Equal(t, 100.0, store.ambassadors[amb.ID].TotalEarnings)
}

func TestUpdate_AmountChangeAfterApprovalAdjustsBothBalances(t *testing.T) {
	store := newFakeStore()
	amb := addAmbassador(store, models.AmbassadorApproved, 10)
	svc := NewService(store, nil)
	ref := createReferral(t, svc, amb, "mem_1", 1000)

	approved := models.CommissionApproved
	_, err := svc.Update(context.Background(), ref.ID, UpdateInput{CommissionStatus: &approved})
	require.NoError(t, err)

	newAmount := 800.0
	_, err = svc.Update(context.Background(), ref.ID, UpdateInput{MembershipAmount: &newAmount})
	require.NoError(t, err)

	assert.Equal(t, 80.0, store.ambassadors[amb.ID].PendingPayout)
	assert.Equal(t, 80.0, store.ambassadors[amb.ID].TotalEarnings)
}

func TestUpdate_RejectsDowngradeFromApproved(t *testing.T) {
	store := newFakeStore()
	amb := addAmbassador(store, models.AmbassadorApproved, 10)
	svc := NewService(store, nil)
	ref := createReferral(t, svc, amb, "mem_1", 1000)

	approved := models.CommissionApproved
	_, err := svc.Update(context.Background(), ref.ID, UpdateInput{CommissionStatus: &approved})
	require.NoError(t, err)

	pending := models.CommissionPending
	_, err = svc.Update(context.Background(), ref.ID, UpdateInput{CommissionStatus: &pending})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdate_UnknownReferral(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	amount := 100.0
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{MembershipAmount: &amount})
	assert.ErrorIs(t, err, ErrReferralNotFound)
}

func TestCreate_RoundsCommissionToCents(t *testing.T) {
	store := newFakeStore()
	amb := addAmbassador(store, models.AmbassadorApproved, 7.5)
	svc := NewService(store, nil)

	ref := createReferral(t, svc, amb, "mem_1", 333.33) // 24.99975
	assert.Equal(t, 25.0, ref.CommissionAmount)
}
