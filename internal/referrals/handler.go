package referrals

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/pkg/response"
)

// Handler exposes the referral ledger.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// CreateRequest is the body for POST /api/referrals, reported by the signup
// flow when a referred member completes checkout.
type CreateRequest struct {
	ReferralCode     string  `json:"referral_code" binding:"required"`
	ReferredUserID   string  `json:"referred_user_id" binding:"required"`
	ReferredUserName string  `json:"referred_user_name"`
	ReferredEmail    string  `json:"referred_user_email"`
	MembershipPlan   string  `json:"membership_plan"`
	MembershipAmount float64 `json:"membership_amount" binding:"required"`
}

// Create handles POST /api/referrals.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ref, err := h.svc.Create(c.Request.Context(), CreateInput{
		ReferralCode:     req.ReferralCode,
		ReferredUserID:   req.ReferredUserID,
		ReferredUserName: req.ReferredUserName,
		ReferredEmail:    req.ReferredEmail,
		MembershipPlan:   req.MembershipPlan,
		MembershipAmount: req.MembershipAmount,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, ref)
}

// UpdateRequest is the body for PATCH /api/referrals/:id.
type UpdateRequest struct {
	MembershipAmount *float64 `json:"membership_amount"`
	MembershipPlan   *string  `json:"membership_plan"`
	CommissionStatus *string  `json:"commission_status"`
}

// Update handles PATCH /api/referrals/:id (admin only).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid referral id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	in := UpdateInput{MembershipAmount: req.MembershipAmount, MembershipPlan: req.MembershipPlan}
	if req.CommissionStatus != nil {
		s := models.CommissionStatus(*req.CommissionStatus)
		in.CommissionStatus = &s
	}
	ref, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, ref)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCodeNotFound), errors.Is(err, ErrReferralNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrDuplicateReferral):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrAmbassadorInactive),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidTransition):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("referral ledger operation failed", zap.Error(err))
		response.Internal(c, "unexpected error")
	}
}
