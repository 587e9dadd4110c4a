package ambassadors

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/internal/referrals"
)

// Repository owns the ambassadors, referrals and payouts tables.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const ambassadorColumns = `id, user_id, referral_code, commission_percentage, total_earnings, pending_payout, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAmbassador(row rowScanner) (*models.Ambassador, error) {
	var a models.Ambassador
	err := row.Scan(&a.ID, &a.UserID, &a.ReferralCode, &a.CommissionPercentage,
		&a.TotalEarnings, &a.PendingPayout, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create enrolls a member in the referral program.
func (r *Repository) Create(ctx context.Context, a *models.Ambassador) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO ambassadors (user_id, referral_code, commission_percentage, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, total_earnings, pending_payout, created_at, updated_at`,
		a.UserID, a.ReferralCode, a.CommissionPercentage, a.Status,
	).Scan(&a.ID, &a.TotalEarnings, &a.PendingPayout, &a.CreatedAt, &a.UpdatedAt)
}

// GetByUserID returns a member's ambassador record, or nil.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Ambassador, error) {
	a, err := scanAmbassador(r.pool.QueryRow(ctx,
		`SELECT `+ambassadorColumns+` FROM ambassadors WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// GetByID returns an ambassador by id, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ambassador, error) {
	a, err := scanAmbassador(r.pool.QueryRow(ctx,
		`SELECT `+ambassadorColumns+` FROM ambassadors WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// List returns all ambassadors, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status models.AmbassadorStatus) ([]models.Ambassador, error) {
	query := `SELECT ` + ambassadorColumns + ` FROM ambassadors`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ambassador
	for rows.Next() {
		a, err := scanAmbassador(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// SetStatus updates an ambassador's program status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.AmbassadorStatus) (*models.Ambassador, error) {
	a, err := scanAmbassador(r.pool.QueryRow(ctx, `
		UPDATE ambassadors SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+ambassadorColumns, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListReferrals returns an ambassador's referrals, newest first.
func (r *Repository) ListReferrals(ctx context.Context, ambassadorID uuid.UUID) ([]models.Referral, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+referralColumns+` FROM referrals WHERE ambassador_id = $1 ORDER BY created_at DESC`,
		ambassadorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Referral
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ref)
	}
	return out, rows.Err()
}

// ListPayouts returns payouts, all of them or for one ambassador.
func (r *Repository) ListPayouts(ctx context.Context, ambassadorID *uuid.UUID) ([]models.Payout, error) {
	query := `SELECT id, ambassador_id, amount, status, requested_at, resolved_at FROM payouts`
	args := []any{}
	if ambassadorID != nil {
		query += ` WHERE ambassador_id = $1`
		args = append(args, *ambassadorID)
	}
	query += ` ORDER BY requested_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Payout
	for rows.Next() {
		var p models.Payout
		if err := rows.Scan(&p.ID, &p.AmbassadorID, &p.Amount, &p.Status, &p.RequestedAt, &p.ResolvedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const referralColumns = `id, ambassador_id, referred_user_id, referred_user_name, referred_user_email,
	membership_plan, membership_amount, commission_percentage, commission_amount, commission_status,
	created_at, updated_at`

func scanReferral(row rowScanner) (*models.Referral, error) {
	var ref models.Referral
	err := row.Scan(&ref.ID, &ref.AmbassadorID, &ref.ReferredUserID, &ref.ReferredUserName,
		&ref.ReferredUserEmail, &ref.MembershipPlan, &ref.MembershipAmount, &ref.CommissionPercentage,
		&ref.CommissionAmount, &ref.CommissionStatus, &ref.CreatedAt, &ref.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// RunTx implements the referral ledger's transactional store.
func (r *Repository) RunTx(ctx context.Context, fn func(tx referrals.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&ledgerTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type ledgerTx struct {
	tx pgx.Tx
}

func (t *ledgerTx) GetAmbassadorByCodeForUpdate(ctx context.Context, code string) (*models.Ambassador, error) {
	a, err := scanAmbassador(t.tx.QueryRow(ctx,
		`SELECT `+ambassadorColumns+` FROM ambassadors WHERE referral_code = $1 FOR UPDATE`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (t *ledgerTx) GetAmbassadorForUpdate(ctx context.Context, id uuid.UUID) (*models.Ambassador, error) {
	a, err := scanAmbassador(t.tx.QueryRow(ctx,
		`SELECT `+ambassadorColumns+` FROM ambassadors WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (t *ledgerTx) UpdateAmbassadorBalances(ctx context.Context, a *models.Ambassador) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE ambassadors
		SET total_earnings = $2, pending_payout = $3, updated_at = $4
		WHERE id = $1`,
		a.ID, a.TotalEarnings, a.PendingPayout, a.UpdatedAt)
	return err
}

func (t *ledgerTx) GetReferralByReferredUser(ctx context.Context, referredUserID string) (*models.Referral, error) {
	ref, err := scanReferral(t.tx.QueryRow(ctx,
		`SELECT `+referralColumns+` FROM referrals WHERE referred_user_id = $1`, referredUserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ref, err
}

func (t *ledgerTx) GetReferralForUpdate(ctx context.Context, id uuid.UUID) (*models.Referral, error) {
	ref, err := scanReferral(t.tx.QueryRow(ctx,
		`SELECT `+referralColumns+` FROM referrals WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ref, err
}

func (t *ledgerTx) InsertReferral(ctx context.Context, ref *models.Referral) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO referrals (ambassador_id, referred_user_id, referred_user_name, referred_user_email,
			membership_plan, membership_amount, commission_percentage, commission_amount, commission_status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		ref.AmbassadorID, ref.ReferredUserID, ref.ReferredUserName, ref.ReferredUserEmail,
		ref.MembershipPlan, ref.MembershipAmount, ref.CommissionPercentage, ref.CommissionAmount,
		ref.CommissionStatus, ref.CreatedAt, ref.UpdatedAt,
	).Scan(&ref.ID)
}

func (t *ledgerTx) UpdateReferral(ctx context.Context, ref *models.Referral) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE referrals
		SET membership_plan = $2, membership_amount = $3, commission_amount = $4,
			commission_status = $5, updated_at = $6
		WHERE id = $1`,
		ref.ID, ref.MembershipPlan, ref.MembershipAmount, ref.CommissionAmount,
		ref.CommissionStatus, ref.UpdatedAt)
	return err
}
