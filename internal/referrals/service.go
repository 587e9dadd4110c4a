package referrals

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/club-pata-amiga/backend/internal/models"
)

var (
	ErrCodeNotFound       = errors.New("referral code not found")
	ErrAmbassadorInactive = errors.New("ambassador is not approved")
	ErrDuplicateReferral  = errors.New("referral already recorded for this user")
	ErrReferralNotFound   = errors.New("referral not found")
	ErrInvalidAmount      = errors.New("membership amount must be positive")
	ErrInvalidTransition  = errors.New("commission status can only move from pending to approved")
)

// Tx is the transactional surface the ledger needs. Both ambassador reads
// lock the row so balance arithmetic is serialized.
type Tx interface {
	GetAmbassadorByCodeForUpdate(ctx context.Context, code string) (*models.Ambassador, error)
	GetAmbassadorForUpdate(ctx context.Context, id uuid.UUID) (*models.Ambassador, error)
	UpdateAmbassadorBalances(ctx context.Context, a *models.Ambassador) error
	GetReferralByReferredUser(ctx context.Context, referredUserID string) (*models.Referral, error)
	GetReferralForUpdate(ctx context.Context, id uuid.UUID) (*models.Referral, error)
	InsertReferral(ctx context.Context, ref *models.Referral) error
	UpdateReferral(ctx context.Context, ref *models.Referral) error
}

// Store runs a function inside a database transaction.
type Store interface {
	RunTx(ctx context.Context, fn func(tx Tx) error) error
}

// Notifier receives ledger events after the transaction commits.
type Notifier interface {
	ReferralRecorded(ctx context.Context, userID uuid.UUID, ref *models.Referral)
}

// Service maintains the referral ledger. A referral is recorded at signup
// with a commission computed from the plan amount known at that moment;
// later amount corrections apply only the difference, and approval credits
// lifetime earnings exactly once.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier, now: time.Now}
}

// CreateInput describes a referred signup reported by the membership frontend.
type CreateInput struct {
	ReferralCode     string
	ReferredUserID   string
	ReferredUserName string
	ReferredEmail    string
	MembershipPlan   string
	MembershipAmount float64
}

// Create records a referral and credits the ambassador's pending balance.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Referral, error) {
	code := strings.TrimSpace(in.ReferralCode)
	if code == "" {
		return nil, ErrCodeNotFound
	}
	if in.MembershipAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	var (
		ref    *models.Referral
		userID uuid.UUID
	)
	err := s.store.RunTx(ctx, func(tx Tx) error {
		amb, err := tx.GetAmbassadorByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if amb == nil {
			return ErrCodeNotFound
		}
		if amb.Status != models.AmbassadorApproved {
			return ErrAmbassadorInactive
		}

		existing, err := tx.GetReferralByReferredUser(ctx, in.ReferredUserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateReferral
		}

		now := s.now()
		commission := round2(in.MembershipAmount * amb.CommissionPercentage / 100)
		ref = &models.Referral{
			AmbassadorID:         amb.ID,
			ReferredUserID:       in.ReferredUserID,
			ReferredUserName:     in.ReferredUserName,
			ReferredUserEmail:    in.ReferredEmail,
			MembershipPlan:       in.MembershipPlan,
			MembershipAmount:     in.MembershipAmount,
			CommissionPercentage: amb.CommissionPercentage,
			CommissionAmount:     commission,
			CommissionStatus:     models.CommissionPending,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := tx.InsertReferral(ctx, ref); err != nil {
			return err
		}

		amb.PendingPayout = round2(amb.PendingPayout + commission)
		amb.UpdatedAt = now
		userID = amb.UserID
		return tx.UpdateAmbassadorBalances(ctx, amb)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.ReferralRecorded(ctx, userID, ref)
	}
	return ref, nil
}

// UpdateInput patches a referral after the fact: payment reconciliation may
// correct the amount, and an admin approves the commission once the
// membership payment clears.
type UpdateInput struct {
	MembershipAmount *float64
	MembershipPlan   *string
	CommissionStatus *models.CommissionStatus
}

// Update applies a ledger correction. An amount change re-derives the
// commission from the snapshotted percentage and credits only the
// difference. Approving moves the commission into lifetime earnings.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Referral, error) {
	if in.MembershipAmount != nil && *in.MembershipAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.CommissionStatus != nil &&
		*in.CommissionStatus != models.CommissionPending &&
		*in.CommissionStatus != models.CommissionApproved {
		return nil, ErrInvalidTransition
	}

	var updated *models.Referral
	err := s.store.RunTx(ctx, func(tx Tx) error {
		ref, err := tx.GetReferralForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if ref == nil {
			return ErrReferralNotFound
		}
		amb, err := tx.GetAmbassadorForUpdate(ctx, ref.AmbassadorID)
		if err != nil {
			return err
		}
		if amb == nil {
			return ErrReferralNotFound
		}

		now := s.now()
		if in.MembershipPlan != nil {
			ref.MembershipPlan = *in.MembershipPlan
		}
		if in.MembershipAmount != nil && *in.MembershipAmount != ref.MembershipAmount {
			newCommission := round2(*in.MembershipAmount * ref.CommissionPercentage / 100)
			diff := round2(newCommission - ref.CommissionAmount)
			amb.PendingPayout = round2(amb.PendingPayout + diff)
			if ref.CommissionStatus == models.CommissionApproved {
				amb.TotalEarnings = round2(amb.TotalEarnings + diff)
			}
			ref.MembershipAmount = *in.MembershipAmount
			ref.CommissionAmount = newCommission
		}
		if in.CommissionStatus != nil && *in.CommissionStatus != ref.CommissionStatus {
			if ref.CommissionStatus == models.CommissionApproved {
				return ErrInvalidTransition
			}
			ref.CommissionStatus = models.CommissionApproved
			amb.TotalEarnings = round2(amb.TotalEarnings + ref.CommissionAmount)
		}

		ref.UpdatedAt = now
		amb.UpdatedAt = now
		if err := tx.UpdateReferral(ctx, ref); err != nil {
			return err
		}
		if err := tx.UpdateAmbassadorBalances(ctx, amb); err != nil {
			return err
		}
		updated = ref
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
