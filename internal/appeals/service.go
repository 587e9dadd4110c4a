// Package appeals implements the pet verification state machine: user
// appeals with a bounded retry budget, owner resubmissions, and admin
// decisions. Every transition is logged, recomputes the member's aggregate
// status, and commits atomically.
package appeals

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/club-pata-amiga/backend/internal/membership"
	"github.com/club-pata-amiga/backend/internal/models"
)

const (
	// MaxAppealsPerPet is the lifetime appeal budget per pet.
	MaxAppealsPerPet = 2
	// MinAppealMessageLen is the minimum appeal message length.
	MinAppealMessageLen = 10
)

var (
	ErrPetNotFound        = errors.New("pet not found")
	ErrNotOwner           = errors.New("pet belongs to another member")
	ErrAppealLimitReached = errors.New("appeal limit reached")
	ErrInvalidState       = errors.New("pet status does not allow this transition")
	ErrMessageTooShort    = errors.New("appeal message too short")
	ErrNotesRequired      = errors.New("admin notes are required for this status")
	ErrInvalidStatus      = errors.New("invalid status")
)

// Tx is the set of storage operations available inside one transaction.
type Tx interface {
	// GetPetForUpdate loads a pet and locks its row for the transaction.
	GetPetForUpdate(ctx context.Context, petID uuid.UUID) (*models.Pet, error)
	UpdatePet(ctx context.Context, p *models.Pet) error
	// CountUserAppeals returns the number of user_appeal log rows for the pet.
	CountUserAppeals(ctx context.Context, petID uuid.UUID) (int, error)
	InsertLog(ctx context.Context, log *models.AppealLog) error
	ListPetStatuses(ctx context.Context, ownerID uuid.UUID) ([]models.PetStatus, error)
	SetMembershipStatus(ctx context.Context, userID uuid.UUID, status models.MembershipStatus) error
}

// Store runs a function inside a database transaction.
type Store interface {
	RunTx(ctx context.Context, fn func(tx Tx) error) error
}

// Notifier receives post-commit events for best-effort side effects
// (in-app notification, realtime push, email). Implementations must not
// return errors to the workflow; they log and move on.
type Notifier interface {
	AppealSubmitted(ctx context.Context, pet *models.Pet, appealCount int)
	StatusChanged(ctx context.Context, pet *models.Pet, previous models.PetStatus, adminNotes string)
}

// Service drives pet status transitions.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

// NewService creates the appeal workflow service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier, now: time.Now}
}

// AppealResult reports the outcome of a successful appeal submission.
type AppealResult struct {
	Pet         *models.Pet `json:"pet"`
	AppealCount int         `json:"appeal_count"`
	MaxAppeals  int         `json:"max_appeals"`
}

// SubmitAppeal moves a rejected or action_required pet to appealed. The
// appeal budget is derived from the append-only log, not a counter column.
func (s *Service) SubmitAppeal(ctx context.Context, userID, petID uuid.UUID, message string) (AppealResult, error) {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) < MinAppealMessageLen {
		return AppealResult{}, ErrMessageTooShort
	}

	var result AppealResult
	err := s.store.RunTx(ctx, func(tx Tx) error {
		pet, err := tx.GetPetForUpdate(ctx, petID)
		if err != nil {
			return err
		}
		if pet == nil {
			return ErrPetNotFound
		}
		if pet.OwnerID != userID {
			return ErrNotOwner
		}
		if pet.Status != models.PetStatusRejected && pet.Status != models.PetStatusActionRequired {
			return ErrInvalidState
		}

		count, err := tx.CountUserAppeals(ctx, petID)
		if err != nil {
			return err
		}
		if count >= MaxAppealsPerPet {
			return ErrAppealLimitReached
		}

		now := s.now()
		pet.Status = models.PetStatusAppealed
		pet.AppealMessage = message
		pet.AppealedAt = &now
		pet.UpdatedAt = now
		if err := tx.UpdatePet(ctx, pet); err != nil {
			return err
		}

		if err := tx.InsertLog(ctx, &models.AppealLog{
			UserID:    userID,
			PetID:     petID,
			Type:      models.AppealLogUserAppeal,
			Message:   message,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		if err := s.recompute(ctx, tx, pet.OwnerID); err != nil {
			return err
		}

		result = AppealResult{Pet: pet, AppealCount: count + 1, MaxAppeals: MaxAppealsPerPet}
		return nil
	})
	if err != nil {
		return AppealResult{}, err
	}

	if s.notifier != nil {
		s.notifier.AppealSubmitted(ctx, result.Pet, result.AppealCount)
	}
	return result, nil
}

// ResubmitInput carries the owner's corrections for an action_required pet.
type ResubmitInput struct {
	Name    *string
	Breed   *string
	Size    *models.PetSize
	Message string
}

// Resubmit applies owner updates. An action_required pet re-enters the admin
// review queue as pending without consuming an appeal slot; a pending pet is
// just updated in place.
func (s *Service) Resubmit(ctx context.Context, userID, petID uuid.UUID, in ResubmitInput) (*models.Pet, error) {
	var updated *models.Pet
	err := s.store.RunTx(ctx, func(tx Tx) error {
		pet, err := tx.GetPetForUpdate(ctx, petID)
		if err != nil {
			return err
		}
		if pet == nil {
			return ErrPetNotFound
		}
		if pet.OwnerID != userID {
			return ErrNotOwner
		}
		if pet.Status != models.PetStatusPending && pet.Status != models.PetStatusActionRequired {
			return ErrInvalidState
		}

		if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
			pet.Name = strings.TrimSpace(*in.Name)
		}
		if in.Breed != nil {
			pet.Breed = strings.TrimSpace(*in.Breed)
		}
		if in.Size != nil {
			pet.Size = *in.Size
		}

		now := s.now()
		resubmitted := pet.Status == models.PetStatusActionRequired
		if resubmitted {
			pet.Status = models.PetStatusPending
		}
		pet.UpdatedAt = now
		if err := tx.UpdatePet(ctx, pet); err != nil {
			return err
		}

		if resubmitted {
			if err := tx.InsertLog(ctx, &models.AppealLog{
				UserID:    userID,
				PetID:     petID,
				Type:      models.AppealLogUserResubmission,
				Message:   strings.TrimSpace(in.Message),
				CreatedAt: now,
			}); err != nil {
				return err
			}
			if err := s.recompute(ctx, tx, pet.OwnerID); err != nil {
				return err
			}
		}

		updated = pet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AdminSetStatus applies an admin decision. Rejections and action_required
// must carry notes. Approving an appealed pet clears the appeal fields.
func (s *Service) AdminSetStatus(ctx context.Context, adminID, petID uuid.UUID, status models.PetStatus, notes string) (*models.Pet, error) {
	switch status {
	case models.PetStatusPending, models.PetStatusApproved, models.PetStatusRejected, models.PetStatusActionRequired:
	default:
		return nil, ErrInvalidStatus
	}
	notes = strings.TrimSpace(notes)
	if notes == "" && (status == models.PetStatusRejected || status == models.PetStatusActionRequired) {
		return nil, ErrNotesRequired
	}

	var (
		updated  *models.Pet
		previous models.PetStatus
	)
	err := s.store.RunTx(ctx, func(tx Tx) error {
		pet, err := tx.GetPetForUpdate(ctx, petID)
		if err != nil {
			return err
		}
		if pet == nil {
			return ErrPetNotFound
		}

		previous = pet.Status
		now := s.now()
		pet.Status = status
		pet.AdminNotes = notes
		if status == models.PetStatusApproved {
			pet.AppealMessage = ""
			pet.AppealedAt = nil
		}
		pet.UpdatedAt = now
		if err := tx.UpdatePet(ctx, pet); err != nil {
			return err
		}

		logType := models.AppealLogAdminStatusChange
		if previous == models.PetStatusAppealed {
			switch status {
			case models.PetStatusApproved:
				logType = models.AppealLogAppealApproved
			case models.PetStatusRejected:
				logType = models.AppealLogAppealRejected
			}
		}
		if err := tx.InsertLog(ctx, &models.AppealLog{
			UserID:    pet.OwnerID,
			PetID:     petID,
			AdminID:   &adminID,
			Type:      logType,
			Message:   notes,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		if err := s.recompute(ctx, tx, pet.OwnerID); err != nil {
			return err
		}

		updated = pet
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, updated, previous, notes)
	}
	return updated, nil
}

// recompute persists the member-level status derived from all the owner's
// pets. The aggregate is never an independent source of truth.
func (s *Service) recompute(ctx context.Context, tx Tx, ownerID uuid.UUID) error {
	statuses, err := tx.ListPetStatuses(ctx, ownerID)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		return nil
	}
	return tx.SetMembershipStatus(ctx, ownerID, membership.Compute(statuses))
}
