package pets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/club-pata-amiga/backend/internal/appeals"
	"github.com/club-pata-amiga/backend/internal/membership"
	"github.com/club-pata-amiga/backend/internal/models"
)

// Repository handles pet and pet-document persistence. It also backs the
// appeal workflow's transactional store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pets repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const petColumns = `id, owner_id, name, species, breed, size, is_original, is_adopted, has_ruac,
	status, admin_notes, appeal_message, appealed_at, waiting_period_start, waiting_period_end,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (*models.Pet, error) {
	var p models.Pet
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed, &p.Size,
		&p.IsOriginal, &p.IsAdopted, &p.HasRUAC,
		&p.Status, &p.AdminNotes, &p.AppealMessage, &p.AppealedAt,
		&p.WaitingPeriodStart, &p.WaitingPeriodEnd, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a pet and recomputes the owner's membership status in the
// same transaction, since a new pending pet changes the aggregate.
func (r *Repository) Create(ctx context.Context, p *models.Pet) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO pets (id, owner_id, name, species, breed, size, is_original, is_adopted, has_ruac,
			status, waiting_period_start, waiting_period_end)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, q, p.OwnerID, p.Name, p.Species, p.Breed, p.Size,
		p.IsOriginal, p.IsAdopted, p.HasRUAC, p.Status,
		p.WaitingPeriodStart, p.WaitingPeriodEnd).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}

	statuses, err := listPetStatuses(ctx, tx, p.OwnerID)
	if err != nil {
		return err
	}
	if err := setMembershipStatus(ctx, tx, p.OwnerID, membership.Compute(statuses)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID returns a pet by id, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	p, err := scanPet(r.pool.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// OwnerOf returns the owner of a pet, or uuid.Nil when the pet does not exist.
func (r *Repository) OwnerOf(ctx context.Context, petID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT owner_id FROM pets WHERE id = $1`, petID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, nil
	}
	return ownerID, err
}

// ListByOwner returns all pets of a member, oldest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Pet, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+petColumns+` FROM pets WHERE owner_id = $1 ORDER BY created_at ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPets(rows)
}

// ListByStatus returns pets in a given status for the admin review queue.
func (r *Repository) ListByStatus(ctx context.Context, status models.PetStatus) ([]models.Pet, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+petColumns+` FROM pets WHERE status = $1 ORDER BY updated_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPets(rows)
}

func collectPets(rows pgx.Rows) ([]models.Pet, error) {
	var list []models.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// AddDocument records an uploaded verification document.
func (r *Repository) AddDocument(ctx context.Context, d *models.PetDocument) error {
	const q = `INSERT INTO pet_documents (id, pet_id, kind, s3_key, content_type)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, uploaded_at`
	return r.pool.QueryRow(ctx, q, d.PetID, d.Kind, d.S3Key, d.ContentType).Scan(&d.ID, &d.UploadedAt)
}

// DeleteDocument removes a document row after its object was replaced.
func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM pet_documents WHERE id = $1`, id)
	return err
}

// ListDocuments returns the documents attached to a pet.
func (r *Repository) ListDocuments(ctx context.Context, petID uuid.UUID) ([]models.PetDocument, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, pet_id, kind, s3_key, content_type, uploaded_at FROM pet_documents WHERE pet_id = $1 ORDER BY uploaded_at DESC`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.PetDocument
	for rows.Next() {
		var d models.PetDocument
		if err := rows.Scan(&d.ID, &d.PetID, &d.Kind, &d.S3Key, &d.ContentType, &d.UploadedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// CountByStatus returns pet counts grouped by status (admin dashboard).
func (r *Repository) CountByStatus(ctx context.Context) (map[models.PetStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM pets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[models.PetStatus]int{}
	for rows.Next() {
		var s models.PetStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

// -------------------------
// appeals.Store implementation
// -------------------------

// RunTx runs fn inside one database transaction.
func (r *Repository) RunTx(ctx context.Context, fn func(tx appeals.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&petTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type petTx struct {
	tx pgx.Tx
}

func (t *petTx) GetPetForUpdate(ctx context.Context, petID uuid.UUID) (*models.Pet, error) {
	p, err := scanPet(t.tx.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1 FOR UPDATE`, petID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (t *petTx) UpdatePet(ctx context.Context, p *models.Pet) error {
	const q = `UPDATE pets SET name = $2, breed = $3, size = $4, status = $5, admin_notes = $6,
			appeal_message = $7, appealed_at = $8, updated_at = $9
		WHERE id = $1`
	_, err := t.tx.Exec(ctx, q, p.ID, p.Name, p.Breed, p.Size, p.Status, p.AdminNotes,
		p.AppealMessage, p.AppealedAt, p.UpdatedAt)
	return err
}

func (t *petTx) CountUserAppeals(ctx context.Context, petID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM appeal_logs WHERE pet_id = $1 AND type = $2`,
		petID, models.AppealLogUserAppeal).Scan(&n)
	return n, err
}

func (t *petTx) InsertLog(ctx context.Context, log *models.AppealLog) error {
	const q = `INSERT INTO appeal_logs (id, user_id, pet_id, admin_id, type, message, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id`
	return t.tx.QueryRow(ctx, q, log.UserID, log.PetID, log.AdminID, log.Type, log.Message, log.CreatedAt).
		Scan(&log.ID)
}

func (t *petTx) ListPetStatuses(ctx context.Context, ownerID uuid.UUID) ([]models.PetStatus, error) {
	return listPetStatuses(ctx, t.tx, ownerID)
}

func (t *petTx) SetMembershipStatus(ctx context.Context, userID uuid.UUID, status models.MembershipStatus) error {
	return setMembershipStatus(ctx, t.tx, userID, status)
}

func listPetStatuses(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) ([]models.PetStatus, error) {
	rows, err := tx.Query(ctx, `SELECT status FROM pets WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.PetStatus
	for rows.Next() {
		var s models.PetStatus
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func setMembershipStatus(ctx context.Context, tx pgx.Tx, userID uuid.UUID, status models.MembershipStatus) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET membership_status = $2, updated_at = NOW() WHERE id = $1`, userID, status)
	return err
}
