package admin

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/club-pata-amiga/backend/internal/auth"
	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/internal/pets"
	"github.com/club-pata-amiga/backend/pkg/response"
)

// Handler serves the admin back office: member browsing, the verification
// queue and program statistics.
type Handler struct {
	pool     *pgxpool.Pool
	userRepo *auth.Repository
	petRepo  *pets.Repository
	logger   *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(pool *pgxpool.Pool, userRepo *auth.Repository, petRepo *pets.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{pool: pool, userRepo: userRepo, petRepo: petRepo, logger: logger}
}

// MemberSummary is one row of the member list.
type MemberSummary struct {
	models.UserPublic
	PetCount int `json:"pet_count"`
}

// ListMembers handles GET /api/admin/members?status=&search=&limit=&offset=.
func (h *Handler) ListMembers(c *gin.Context) {
	status := models.MembershipStatus(c.Query("status"))
	search := c.Query("search")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT u.id, u.email, u.full_name, u.phone, u.role, u.membership_status,
			u.registration_date, u.created_at, COUNT(p.id)
		FROM users u
		LEFT JOIN pets p ON p.owner_id = u.id
		WHERE u.role = 'member'`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += ` AND u.membership_status = $` + strconv.Itoa(len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (u.email ILIKE $` + n + ` OR u.full_name ILIKE $` + n + `)`
	}
	query += ` GROUP BY u.id ORDER BY u.registration_date DESC`
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := h.pool.Query(c.Request.Context(), query, args...)
	if err != nil {
		h.logger.Error("member list query failed", zap.Error(err))
		response.Internal(c, "failed to load members")
		return
	}
	defer rows.Close()

	var out []MemberSummary
	for rows.Next() {
		var m MemberSummary
		if err := rows.Scan(&m.ID, &m.Email, &m.FullName, &m.Phone, &m.Role, &m.MembershipStatus,
			&m.RegistrationDate, &m.CreatedAt, &m.PetCount); err != nil {
			response.Internal(c, "failed to load members")
			return
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		response.Internal(c, "failed to load members")
		return
	}
	response.OK(c, out)
}

// GetMember handles GET /api/admin/members/:id: the member plus all pets
// with their waiting-period progress.
func (h *Handler) GetMember(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	user, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil || user == nil {
		response.NotFound(c, "member not found")
		return
	}
	memberPets, err := h.petRepo.ListByOwner(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load pets")
		return
	}

	now := time.Now()
	type petView struct {
		models.Pet
		WaitingProgress int `json:"waiting_progress"`
	}
	views := make([]petView, 0, len(memberPets))
	for _, p := range memberPets {
		views = append(views, petView{
			Pet:             p,
			WaitingProgress: pets.WaitingProgress(p.WaitingPeriodStart, p.WaitingPeriodEnd, now),
		})
	}
	response.OK(c, gin.H{"member": user.ToPublic(), "pets": views})
}

// ListPets handles GET /api/admin/pets?status=. The verification queue.
func (h *Handler) ListPets(c *gin.Context) {
	status := models.PetStatus(c.DefaultQuery("status", string(models.PetStatusPending)))
	if !models.ValidPetStatus(status) {
		response.BadRequest(c, "invalid status filter")
		return
	}
	list, err := h.petRepo.ListByStatus(c.Request.Context(), status)
	if err != nil {
		response.Internal(c, "failed to load pets")
		return
	}
	response.OK(c, list)
}

// StatsResponse is the back office dashboard summary.
type StatsResponse struct {
	MembersByStatus map[models.MembershipStatus]int `json:"members_by_status"`
	PetsByStatus    map[models.PetStatus]int        `json:"pets_by_status"`
	Ambassadors     int                             `json:"ambassadors"`
	Referrals       int                             `json:"referrals"`
	TotalCommission float64                         `json:"total_commission"`
	PendingPayouts  int                             `json:"pending_payouts"`
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	out := StatsResponse{
		MembersByStatus: map[models.MembershipStatus]int{},
	}

	rows, err := h.pool.Query(ctx,
		`SELECT membership_status, COUNT(*) FROM users WHERE role = 'member' GROUP BY membership_status`)
	if err != nil {
		response.Internal(c, "failed to load stats")
		return
	}
	for rows.Next() {
		var (
			st models.MembershipStatus
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			rows.Close()
			response.Internal(c, "failed to load stats")
			return
		}
		out.MembersByStatus[st] = n
	}
	rows.Close()
	if rows.Err() != nil {
		response.Internal(c, "failed to load stats")
		return
	}

	petCounts, err := h.petRepo.CountByStatus(ctx)
	if err != nil {
		response.Internal(c, "failed to load stats")
		return
	}
	out.PetsByStatus = petCounts

	const refQ = `
		SELECT
			(SELECT COUNT(*) FROM ambassadors),
			(SELECT COUNT(*) FROM referrals),
			(SELECT COALESCE(SUM(commission_amount), 0) FROM referrals),
			(SELECT COUNT(*) FROM payouts WHERE status = 'pending')`
	if err := h.pool.QueryRow(ctx, refQ).Scan(&out.Ambassadors, &out.Referrals, &out.TotalCommission, &out.PendingPayouts); err != nil {
		response.Internal(c, "failed to load stats")
		return
	}

	response.OK(c, out)
}
