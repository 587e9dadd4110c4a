package ambassadors

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/club-pata-amiga/backend/internal/middleware"
	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/pkg/response"
)

// Notifier receives post-commit payout events for best-effort member
// notification and email.
type Notifier interface {
	PayoutRequested(ctx context.Context, userID uuid.UUID, payout *models.Payout)
	PayoutResolved(ctx context.Context, userID uuid.UUID, payout *models.Payout)
}

// Handler exposes the ambassador program.
type Handler struct {
	repo              *Repository
	notifier          Notifier
	defaultCommission float64
	logger            *zap.Logger
}

func NewHandler(repo *Repository, notifier Notifier, defaultCommission float64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCommission <= 0 {
		defaultCommission = 10
	}
	return &Handler{repo: repo, notifier: notifier, defaultCommission: defaultCommission, logger: logger}
}

// Apply handles POST /api/ambassadors. Enrolls the member as a pending
// ambassador with a fresh referral code.
func (h *Handler) Apply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}

	existing, err := h.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to check enrollment")
		return
	}
	if existing != nil {
		response.Conflict(c, "already enrolled in the ambassador program")
		return
	}

	code, err := generateReferralCode()
	if err != nil {
		response.Internal(c, "failed to generate referral code")
		return
	}
	amb := &models.Ambassador{
		UserID:               userID,
		ReferralCode:         code,
		CommissionPercentage: h.defaultCommission,
		Status:               models.AmbassadorPending,
	}
	if err := h.repo.Create(c.Request.Context(), amb); err != nil {
		h.logger.Error("ambassador enrollment failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to enroll")
		return
	}
	response.Created(c, amb)
}

// Me handles GET /api/ambassadors/me: the member's record, referrals and payouts.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	amb, err := h.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load ambassador")
		return
	}
	if amb == nil {
		response.NotFound(c, "not enrolled in the ambassador program")
		return
	}
	refs, err := h.repo.ListReferrals(c.Request.Context(), amb.ID)
	if err != nil {
		response.Internal(c, "failed to load referrals")
		return
	}
	payouts, err := h.repo.ListPayouts(c.Request.Context(), &amb.ID)
	if err != nil {
		response.Internal(c, "failed to load payouts")
		return
	}
	response.OK(c, gin.H{"ambassador": amb, "referrals": refs, "payouts": payouts})
}

// RequestPayout handles POST /api/ambassadors/:id/payouts. Members may only
// withdraw their own balance.
func (h *Handler) RequestPayout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	ambID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ambassador id")
		return
	}
	amb, err := h.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load ambassador")
		return
	}
	if amb == nil {
		response.NotFound(c, "not enrolled in the ambassador program")
		return
	}
	if amb.ID != ambID {
		response.Forbidden(c, "cannot request payouts for another ambassador")
		return
	}

	payout, err := h.repo.RequestPayout(c.Request.Context(), amb.ID)
	switch {
	case errors.Is(err, ErrNotApproved), errors.Is(err, ErrNothingToPayOut):
		response.BadRequest(c, err.Error())
		return
	case err != nil:
		h.logger.Error("payout request failed", zap.Error(err), zap.String("ambassador_id", amb.ID.String()))
		response.Internal(c, "failed to request payout")
		return
	}
	if h.notifier != nil {
		h.notifier.PayoutRequested(c.Request.Context(), userID, payout)
	}
	response.Created(c, payout)
}

// AdminList handles GET /api/admin/ambassadors?status=.
func (h *Handler) AdminList(c *gin.Context) {
	status := models.AmbassadorStatus(c.Query("status"))
	if status != "" && !models.ValidAmbassadorStatus(status) {
		response.BadRequest(c, "invalid status filter")
		return
	}
	out, err := h.repo.List(c.Request.Context(), status)
	if err != nil {
		response.Internal(c, "failed to load ambassadors")
		return
	}
	response.OK(c, out)
}

// AdminStatusRequest is the body for PATCH /api/admin/ambassadors/:id/status.
type AdminStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminSetStatus handles PATCH /api/admin/ambassadors/:id/status.
func (h *Handler) AdminSetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ambassador id")
		return
	}
	var req AdminStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status := models.AmbassadorStatus(req.Status)
	if !models.ValidAmbassadorStatus(status) {
		response.BadRequest(c, "invalid status")
		return
	}
	amb, err := h.repo.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		response.Internal(c, "failed to update ambassador")
		return
	}
	if amb == nil {
		response.NotFound(c, "ambassador not found")
		return
	}
	response.OK(c, amb)
}

// AdminListPayouts handles GET /api/admin/payouts.
func (h *Handler) AdminListPayouts(c *gin.Context) {
	payouts, err := h.repo.ListPayouts(c.Request.Context(), nil)
	if err != nil {
		response.Internal(c, "failed to load payouts")
		return
	}
	response.OK(c, payouts)
}

// AdminResolvePayoutRequest is the body for PATCH /api/admin/payouts/:id.
type AdminResolvePayoutRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminResolvePayout handles PATCH /api/admin/payouts/:id.
func (h *Handler) AdminResolvePayout(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payout id")
		return
	}
	var req AdminResolvePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status := models.PayoutStatus(req.Status)
	if status != models.PayoutPaid && status != models.PayoutRejected {
		response.BadRequest(c, "status must be paid or rejected")
		return
	}

	payout, err := h.repo.ResolvePayout(c.Request.Context(), id, status)
	switch {
	case errors.Is(err, ErrPayoutNotFound):
		response.NotFound(c, err.Error())
		return
	case errors.Is(err, ErrPayoutResolved):
		response.Conflict(c, err.Error())
		return
	case err != nil:
		h.logger.Error("payout resolution failed", zap.Error(err), zap.String("payout_id", id.String()))
		response.Internal(c, "failed to resolve payout")
		return
	}
	if h.notifier != nil {
		if amb, err := h.repo.GetByID(c.Request.Context(), payout.AmbassadorID); err == nil && amb != nil {
			h.notifier.PayoutResolved(c.Request.Context(), amb.UserID, payout)
		}
	}
	response.OK(c, payout)
}

// generateReferralCode returns a short human-shareable code like "PATA-X7Q2M4RD".
func generateReferralCode() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)
	return "PATA-" + strings.ToUpper(code), nil
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
