package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/pkg/queue"
	"github.com/club-pata-amiga/backend/pkg/response"
	"github.com/club-pata-amiga/backend/pkg/utils"
)

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	FullName       string `json:"full_name" binding:"required"`
	Phone          string `json:"phone"`
	ExternalAuthID string `json:"external_auth_id"` // legacy identity-provider member id, optional
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates an auth handler. jobs may be nil (no CRM sync).
func NewHandler(repo *Repository, jwt *JWTService, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, jobs: jobs, logger: logger}
}

// Register handles POST /api/auth/register. New accounts are members; admins
// are created out of band.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	var externalID *string
	if req.ExternalAuthID != "" {
		externalID = &req.ExternalAuthID
	}
	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, req.Phone, models.RoleMember, externalID)
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	// CRM sync is best-effort and must never fail registration.
	if h.jobs != nil {
		if err := h.jobs.EnqueueCRMSync(c.Request.Context(), queue.CRMSyncPayload{
			UserID:           user.ID,
			Email:            user.Email,
			FullName:         user.FullName,
			MembershipStatus: string(user.MembershipStatus),
			Event:            "member_registered",
		}); err != nil {
			h.logger.Warn("crm sync enqueue failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		}
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}
