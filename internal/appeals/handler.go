package appeals

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/club-pata-amiga/backend/internal/middleware"
	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/pkg/response"
)

// OwnerLookup resolves the owner of a pet. Returns uuid.Nil when the pet
// does not exist.
type OwnerLookup func(ctx context.Context, petID uuid.UUID) (uuid.UUID, error)

// Handler exposes the appeal workflow over HTTP.
type Handler struct {
	svc     *Service
	ownerOf OwnerLookup
	logger  *zap.Logger
}

func NewHandler(svc *Service, ownerOf OwnerLookup, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, ownerOf: ownerOf, logger: logger}
}

// SubmitRequest is the body for POST /api/user/appeal.
type SubmitRequest struct {
	PetID         string `json:"pet_id" binding:"required"`
	AppealMessage string `json:"appeal_message" binding:"required"`
}

// Submit handles POST /api/user/appeal.
func (h *Handler) Submit(c *gin.Context) {
	userVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	userID := userVal.(uuid.UUID)

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	petID, err := uuid.Parse(req.PetID)
	if err != nil {
		response.BadRequest(c, "invalid pet id")
		return
	}

	result, err := h.svc.SubmitAppeal(c.Request.Context(), userID, petID, req.AppealMessage)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{
		"pet":          result.Pet,
		"appeal_count": result.AppealCount,
		"max_appeals":  result.MaxAppeals,
	})
}

// AdminStatusRequest is the body for POST /api/admin/members/:id/pets/:petID/status.
type AdminStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	AdminNotes string `json:"admin_notes"`
}

// AdminSetStatus handles POST /api/admin/members/:id/pets/:petID/status.
// The member id in the path must match the pet's owner.
func (h *Handler) AdminSetStatus(c *gin.Context) {
	adminVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	adminID := adminVal.(uuid.UUID)

	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	petID, err := uuid.Parse(c.Param("petID"))
	if err != nil {
		response.BadRequest(c, "invalid pet id")
		return
	}

	var req AdminStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ownerID, err := h.ownerOf(c.Request.Context(), petID)
	if err != nil {
		h.logger.Error("owner lookup failed", zap.Error(err), zap.String("pet_id", petID.String()))
		response.Internal(c, "unexpected error")
		return
	}
	if ownerID == uuid.Nil || ownerID != memberID {
		response.NotFound(c, "pet not found for member")
		return
	}

	pet, err := h.svc.AdminSetStatus(c.Request.Context(), adminID, petID, models.PetStatus(req.Status), req.AdminNotes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, pet)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPetNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrAppealLimitReached),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrMessageTooShort),
		errors.Is(err, ErrNotesRequired),
		errors.Is(err, ErrInvalidStatus):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("appeal workflow failed", zap.Error(err))
		response.Internal(c, "unexpected error")
	}
}
