package chatbot

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/pkg/response"
)

// Sessions persists chatbot sessions.
type Sessions interface {
	Create(ctx context.Context, s *models.ChatSession) error
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*models.ChatSession, error)
}

// MemberLookup resolves the platform account behind an external member id.
type MemberLookup interface {
	GetByExternalAuthID(ctx context.Context, externalID string) (*models.User, error)
}

// Handler issues short-lived session tokens for the external support chatbot.
// The chatbot widget cannot hold member credentials, so the frontend trades
// the member id for an opaque token the bot backend can verify.
type Handler struct {
	repo       Sessions
	members    MemberLookup
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewHandler(repo Sessions, members MemberLookup, sessionTTL time.Duration, logger *zap.Logger) *Handler {
	if sessionTTL <= 0 {
		sessionTTL = 2 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, members: members, sessionTTL: sessionTTL, logger: logger}
}

// SessionTokenRequest is the body for POST /api/auth/session-token.
type SessionTokenRequest struct {
	MemberID string `json:"member_id" binding:"required"`
}

// CreateSessionToken handles POST /api/auth/session-token.
func (h *Handler) CreateSessionToken(c *gin.Context) {
	var req SessionTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	token, err := generateSessionToken()
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	session := &models.ChatSession{
		ExternalMemberID: req.MemberID,
		Token:            token,
		ExpiresAt:        time.Now().Add(h.sessionTTL),
	}
	if err := h.repo.Create(c.Request.Context(), session); err != nil {
		h.logger.Error("chat session create failed", zap.Error(err), zap.String("member_id", req.MemberID))
		response.Internal(c, "failed to create session")
		return
	}

	response.OK(c, gin.H{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
	})
}

// ValidateSessionToken handles GET /api/auth/session-token/:token/validate.
// Used by the chatbot backend to resolve a token to a member.
func (h *Handler) ValidateSessionToken(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "token required")
		return
	}
	session, err := h.repo.GetActiveByToken(c.Request.Context(), token, time.Now())
	if err != nil {
		response.Internal(c, "failed to validate session")
		return
	}
	if session == nil {
		response.Unauthorized(c, "invalid or expired session token")
		return
	}

	out := gin.H{
		"member_id":  session.ExternalMemberID,
		"expires_at": session.ExpiresAt,
	}
	// When the external id maps to a platform account, include the member
	// profile so the bot can tailor its answers.
	if h.members != nil {
		user, err := h.members.GetByExternalAuthID(c.Request.Context(), session.ExternalMemberID)
		if err != nil {
			h.logger.Warn("member lookup failed", zap.Error(err), zap.String("member_id", session.ExternalMemberID))
		} else if user != nil {
			out["member"] = user.ToPublic()
			out["membership_status"] = user.MembershipStatus
		}
	}
	response.OK(c, out)
}

func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
