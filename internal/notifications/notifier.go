package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/pkg/queue"
)

// UserLookup resolves a user by id for email delivery.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Store persists notification rows.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
}

// EmailQueue enqueues transactional email jobs for the worker.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Pusher delivers a realtime event to a connected member.
type Pusher interface {
	PushToUser(userID uuid.UUID, event string, payload interface{})
}

// defaultExpiry keeps the in-app feed from growing without bound. The
// sweeper deletes expired rows.
const defaultExpiry = 90 * 24 * time.Hour

// Notifier fans verification events out to the in-app feed, email queue and
// WebSocket push. Every channel is best effort: the originating transaction
// has already committed.
type Notifier struct {
	repo   Store
	users  UserLookup
	jobs   EmailQueue
	hub    Pusher
	logger *zap.Logger
}

// NewNotifier creates a notifier. jobs and hub may be nil; the corresponding
// channel is skipped.
func NewNotifier(repo Store, users UserLookup, jobs EmailQueue, hub Pusher, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{repo: repo, users: users, jobs: jobs, hub: hub, logger: logger}
}

// AppealSubmitted notifies the member that their appeal was received.
func (n *Notifier) AppealSubmitted(ctx context.Context, pet *models.Pet, appealCount int) {
	meta, _ := json.Marshal(map[string]any{
		"pet_id":       pet.ID.String(),
		"appeal_count": appealCount,
	})
	n.deliver(ctx, pet.OwnerID, models.Notification{
		Type:     models.NotificationAppealReceived,
		Title:    "Appeal received",
		Message:  fmt.Sprintf("Your appeal for %s is under review.", pet.Name),
		Metadata: meta,
	}, "", "")
}

// StatusChanged notifies the member of an admin decision on a pet.
func (n *Notifier) StatusChanged(ctx context.Context, pet *models.Pet, previous models.PetStatus, adminNotes string) {
	var (
		typ       models.NotificationType
		title     string
		body      string
		emailType string
	)
	switch pet.Status {
	case models.PetStatusApproved:
		typ = models.NotificationPetApproved
		title = "Pet approved"
		body = fmt.Sprintf("%s passed verification.", pet.Name)
		emailType = models.EmailTypePetApproved
		if previous == models.PetStatusAppealed {
			typ = models.NotificationAppealResolved
			title = "Appeal approved"
			emailType = models.EmailTypeAppealResolved
		}
	case models.PetStatusRejected:
		typ = models.NotificationPetRejected
		title = "Pet rejected"
		body = fmt.Sprintf("%s did not pass verification: %s", pet.Name, adminNotes)
		emailType = models.EmailTypePetRejected
		if previous == models.PetStatusAppealed {
			typ = models.NotificationAppealResolved
			title = "Appeal rejected"
			emailType = models.EmailTypeAppealResolved
		}
	case models.PetStatusActionRequired:
		typ = models.NotificationActionRequired
		title = "Action required"
		body = fmt.Sprintf("We need more information about %s: %s", pet.Name, adminNotes)
		emailType = models.EmailTypeActionRequired
	default:
		typ = models.NotificationMembershipActive
		title = "Verification update"
		body = fmt.Sprintf("The review of %s was updated.", pet.Name)
	}

	meta, _ := json.Marshal(map[string]any{
		"pet_id":          pet.ID.String(),
		"status":          pet.Status,
		"previous_status": previous,
	})
	n.deliver(ctx, pet.OwnerID, models.Notification{
		Type:     typ,
		Title:    title,
		Message:  body,
		Metadata: meta,
	}, emailType, body)
}

// ReferralRecorded notifies an ambassador of a new referred signup.
func (n *Notifier) ReferralRecorded(ctx context.Context, userID uuid.UUID, ref *models.Referral) {
	n.Notify(ctx, userID, models.NotificationReferralCredited,
		"New referral",
		fmt.Sprintf("A referred signup earned you %.2f in pending commission.", ref.CommissionAmount),
		map[string]any{"referral_id": ref.ID.String(), "commission_amount": ref.CommissionAmount},
	)
}

// PayoutRequested confirms a withdrawal request to the ambassador.
func (n *Notifier) PayoutRequested(ctx context.Context, userID uuid.UUID, payout *models.Payout) {
	meta, _ := json.Marshal(map[string]any{
		"payout_id": payout.ID.String(),
		"amount":    payout.Amount,
	})
	body := fmt.Sprintf("Your payout request of %.2f is being processed.", payout.Amount)
	n.deliver(ctx, userID, models.Notification{
		Type:     models.NotificationPayoutRequested,
		Title:    "Payout requested",
		Message:  body,
		Metadata: meta,
	}, models.EmailTypePayoutUpdate, body)
}

// PayoutResolved notifies the ambassador of an admin decision on a payout.
func (n *Notifier) PayoutResolved(ctx context.Context, userID uuid.UUID, payout *models.Payout) {
	typ := models.NotificationPayoutPaid
	title := "Payout sent"
	body := fmt.Sprintf("Your payout of %.2f was sent.", payout.Amount)
	if payout.Status == models.PayoutRejected {
		typ = models.NotificationAmbassadorUpdated
		title = "Payout rejected"
		body = fmt.Sprintf("Your payout request of %.2f was rejected; the balance is back in your account.", payout.Amount)
	}
	meta, _ := json.Marshal(map[string]any{
		"payout_id": payout.ID.String(),
		"amount":    payout.Amount,
		"status":    payout.Status,
	})
	n.deliver(ctx, userID, models.Notification{
		Type:     typ,
		Title:    title,
		Message:  body,
		Metadata: meta,
	}, models.EmailTypePayoutUpdate, body)
}

// Notify inserts an arbitrary notification and pushes it.
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, typ models.NotificationType, title, body string, metadata map[string]any) {
	meta, _ := json.Marshal(metadata)
	n.deliver(ctx, userID, models.Notification{
		Type:     typ,
		Title:    title,
		Message:  body,
		Metadata: meta,
	}, "", "")
}

func (n *Notifier) deliver(ctx context.Context, userID uuid.UUID, notif models.Notification, emailType, emailBody string) {
	notif.UserID = userID
	expires := time.Now().Add(defaultExpiry)
	notif.ExpiresAt = &expires

	if err := n.repo.Create(ctx, &notif); err != nil {
		n.logger.Warn("notification insert failed",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("type", string(notif.Type)),
		)
	} else if n.hub != nil {
		n.hub.PushToUser(userID, "notification", notif)
	}

	if emailType == "" || n.jobs == nil {
		return
	}
	user, err := n.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		n.logger.Warn("email recipient lookup failed", zap.Error(err), zap.String("user_id", userID.String()))
		return
	}
	if err := n.jobs.EnqueueEmail(ctx, queue.EmailPayload{
		EmailType:      emailType,
		UserID:         &userID,
		RecipientEmail: user.Email,
		Subject:        notif.Title,
		BodyHTML:       fmt.Sprintf("<p>Hi %s,</p><p>%s</p>", user.FullName, emailBody),
	}); err != nil {
		n.logger.Warn("email enqueue failed", zap.Error(err), zap.String("user_id", userID.String()))
	}
}
