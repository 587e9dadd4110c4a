package pets

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/club-pata-amiga/backend/internal/appeals"
	"github.com/club-pata-amiga/backend/internal/middleware"
	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/pkg/response"
	"github.com/club-pata-amiga/backend/pkg/storage"
)

// UserLookup resolves the authenticated member for the profile endpoint.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Handler handles pet HTTP endpoints for members.
type Handler struct {
	repo    *Repository
	appeals *appeals.Service
	s3      *storage.S3
	users   UserLookup
	logger  *zap.Logger
}

// NewHandler creates a pets handler. s3 may be nil; document endpoints then
// report storage as unavailable.
func NewHandler(repo *Repository, appealsSvc *appeals.Service, s3 *storage.S3, users UserLookup, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, appeals: appealsSvc, s3: s3, users: users, logger: logger}
}

// Profile handles GET /api/user/me: the member plus all pets with their
// verification state and waiting-period progress.
func (h *Handler) Profile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		response.NotFound(c, "user not found")
		return
	}
	petList, err := h.repo.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load pets")
		return
	}
	now := time.Now()
	views := make([]PetResponse, 0, len(petList))
	for _, p := range petList {
		views = append(views, toPetResponse(p, now))
	}
	response.OK(c, gin.H{"member": user.ToPublic(), "pets": views})
}

// CreateRequest is the body for POST /api/user/pets.
type CreateRequest struct {
	Name       string `json:"name" binding:"required"`
	Species    string `json:"species" binding:"required"`
	Breed      string `json:"breed"`
	Size       string `json:"size"`
	IsOriginal *bool  `json:"is_original" binding:"required"`
	IsAdopted  bool   `json:"is_adopted"`
	HasRUAC    bool   `json:"has_ruac"`
}

// PetResponse decorates a pet with its waiting-period progress.
type PetResponse struct {
	models.Pet
	WaitingPeriod   WaitingPeriod `json:"waiting_period"`
	WaitingProgress int           `json:"waiting_progress"`
}

func toPetResponse(p models.Pet, now time.Time) PetResponse {
	return PetResponse{
		Pet:             p,
		WaitingPeriod:   CalculateWaitingPeriod(p.IsOriginal, p.IsAdopted, p.HasRUAC, p.WaitingPeriodStart),
		WaitingProgress: WaitingProgress(p.WaitingPeriodStart, p.WaitingPeriodEnd, now),
	}
}

// Create handles POST /api/user/pets. The waiting period is anchored to the
// registration moment so the stored dates and the calculator agree.
func (h *Handler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	now := time.Now()
	wp := CalculateWaitingPeriod(*req.IsOriginal, req.IsAdopted, req.HasRUAC, now)
	pet := &models.Pet{
		OwnerID:            userID,
		Name:               req.Name,
		Species:            req.Species,
		Breed:              req.Breed,
		Size:               models.PetSize(req.Size),
		IsOriginal:         *req.IsOriginal,
		IsAdopted:          req.IsAdopted,
		HasRUAC:            req.HasRUAC,
		Status:             models.PetStatusPending,
		WaitingPeriodStart: now,
		WaitingPeriodEnd:   wp.EndDate,
	}
	if err := h.repo.Create(c.Request.Context(), pet); err != nil {
		h.logger.Error("create pet failed", zap.Error(err), zap.String("owner_id", userID.String()))
		response.Internal(c, "failed to register pet")
		return
	}

	response.Created(c, toPetResponse(*pet, now))
}

// List handles GET /api/user/pets.
func (h *Handler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	pets, err := h.repo.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load pets")
		return
	}
	now := time.Now()
	out := make([]PetResponse, 0, len(pets))
	for _, p := range pets {
		out = append(out, toPetResponse(p, now))
	}
	response.OK(c, out)
}

// UpdateRequest is the body for PATCH /api/user/pets/:petID.
type UpdateRequest struct {
	Name    *string `json:"name"`
	Breed   *string `json:"breed"`
	Size    *string `json:"size"`
	Message string  `json:"message"`
}

// Update handles PATCH /api/user/pets/:petID. An action_required pet goes
// back to pending for re-review.
func (h *Handler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	petID, err := uuid.Parse(c.Param("petID"))
	if err != nil {
		response.BadRequest(c, "invalid pet id")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	var size *models.PetSize
	if req.Size != nil {
		s := models.PetSize(*req.Size)
		size = &s
	}
	updated, err := h.appeals.Resubmit(c.Request.Context(), userID, petID, appeals.ResubmitInput{
		Name:    req.Name,
		Breed:   req.Breed,
		Size:    size,
		Message: req.Message,
	})
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	response.OK(c, toPetResponse(*updated, time.Now()))
}

// UploadURLRequest is the body for POST /api/user/pets/:petID/documents/upload-url.
type UploadURLRequest struct {
	Kind      string `json:"kind" binding:"required"`
	Filename  string `json:"filename" binding:"required"`
	SizeBytes int64  `json:"size_bytes" binding:"required"`
}

// GenerateUploadURL handles POST /api/user/pets/:petID/documents/upload-url.
// Returns a pre-signed PUT URL and records the document row.
func (h *Handler) GenerateUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "document storage not configured")
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	petID, err := uuid.Parse(c.Param("petID"))
	if err != nil {
		response.BadRequest(c, "invalid pet id")
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !models.ValidDocumentKind(models.DocumentKind(req.Kind)) {
		response.BadRequest(c, "invalid document kind")
		return
	}
	if !storage.ValidateDocumentType("", req.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	if !storage.ValidateDocumentSize(req.SizeBytes) {
		response.BadRequest(c, "file exceeds the 10MB document limit")
		return
	}

	pet, err := h.repo.GetByID(c.Request.Context(), petID)
	if err != nil || pet == nil {
		response.NotFound(c, "pet not found")
		return
	}
	if pet.OwnerID != userID {
		response.Forbidden(c, "pet belongs to another member")
		return
	}

	// A new upload of the same kind replaces the previous document.
	existing, err := h.repo.ListDocuments(c.Request.Context(), petID)
	if err != nil {
		response.Internal(c, "failed to load documents")
		return
	}
	for _, d := range existing {
		if d.Kind != models.DocumentKind(req.Kind) {
			continue
		}
		if err := h.s3.DeleteObject(c.Request.Context(), d.S3Key); err != nil {
			h.logger.Warn("stale document delete failed", zap.Error(err), zap.String("key", d.S3Key))
		}
		if err := h.repo.DeleteDocument(c.Request.Context(), d.ID); err != nil {
			h.logger.Warn("stale document row delete failed", zap.Error(err), zap.String("document_id", d.ID.String()))
		}
	}

	contentType := storage.ContentTypeForFilename(req.Filename)
	key := storage.DocumentKey(userID.String(), petID.String(), req.Kind, req.Filename)
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, contentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to generate upload url")
		return
	}

	doc := &models.PetDocument{PetID: petID, Kind: models.DocumentKind(req.Kind), S3Key: key, ContentType: contentType}
	if err := h.repo.AddDocument(c.Request.Context(), doc); err != nil {
		h.logger.Error("record document failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to record document")
		return
	}

	response.OK(c, gin.H{
		"upload_url":   url,
		"s3_key":       key,
		"content_type": contentType,
		"document":     doc,
	})
}

// ListDocuments handles GET /api/user/pets/:petID/documents with presigned
// download URLs. Admins reach the same data via the admin routes.
func (h *Handler) ListDocuments(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "document storage not configured")
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	petID, err := uuid.Parse(c.Param("petID"))
	if err != nil {
		response.BadRequest(c, "invalid pet id")
		return
	}

	pet, err := h.repo.GetByID(c.Request.Context(), petID)
	if err != nil || pet == nil {
		response.NotFound(c, "pet not found")
		return
	}
	roleVal, _ := c.Get(middleware.ContextUserRole)
	if pet.OwnerID != userID && roleVal != string(models.RoleAdmin) {
		response.Forbidden(c, "pet belongs to another member")
		return
	}

	h.writeDocumentList(c, petID)
}

func (h *Handler) writeDocumentList(c *gin.Context, petID uuid.UUID) {
	docs, err := h.repo.ListDocuments(c.Request.Context(), petID)
	if err != nil {
		response.Internal(c, "failed to load documents")
		return
	}
	type docWithURL struct {
		models.PetDocument
		DownloadURL string `json:"download_url,omitempty"`
	}
	out := make([]docWithURL, 0, len(docs))
	for _, d := range docs {
		url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), d.S3Key, h.s3.PresignExpire())
		if err != nil {
			h.logger.Warn("presign download failed", zap.Error(err), zap.String("key", d.S3Key))
		}
		out = append(out, docWithURL{PetDocument: d, DownloadURL: url})
	}
	response.OK(c, out)
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func writeWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appeals.ErrPetNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, appeals.ErrNotOwner):
		response.Forbidden(c, err.Error())
	case errors.Is(err, appeals.ErrAppealLimitReached),
		errors.Is(err, appeals.ErrInvalidState),
		errors.Is(err, appeals.ErrMessageTooShort),
		errors.Is(err, appeals.ErrNotesRequired),
		errors.Is(err, appeals.ErrInvalidStatus):
		response.BadRequest(c, err.Error())
	default:
		response.Internal(c, "unexpected error")
	}
}
