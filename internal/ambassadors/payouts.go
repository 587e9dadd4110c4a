package ambassadors

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/club-pata-amiga/backend/internal/models"
)

var (
	ErrNotApproved      = errors.New("ambassador is not approved")
	ErrNothingToPayOut  = errors.New("no pending balance to pay out")
	ErrPayoutNotFound   = errors.New("payout not found")
	ErrPayoutResolved   = errors.New("payout already resolved")
	ErrAmbassadorMissed = errors.New("ambassador not found")
)

// RequestPayout withdraws the full pending balance into a payout request.
// The ambassador row is locked so concurrent requests cannot double-spend.
func (r *Repository) RequestPayout(ctx context.Context, ambassadorID uuid.UUID) (*models.Payout, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	amb, err := scanAmbassador(tx.QueryRow(ctx,
		`SELECT `+ambassadorColumns+` FROM ambassadors WHERE id = $1 FOR UPDATE`, ambassadorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAmbassadorMissed
	}
	if err != nil {
		return nil, err
	}
	if amb.Status != models.AmbassadorApproved {
		return nil, ErrNotApproved
	}
	if amb.PendingPayout <= 0 {
		return nil, ErrNothingToPayOut
	}

	p := &models.Payout{AmbassadorID: ambassadorID, Amount: amb.PendingPayout, Status: models.PayoutPending}
	if err := tx.QueryRow(ctx, `
		INSERT INTO payouts (ambassador_id, amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, requested_at`,
		p.AmbassadorID, p.Amount, p.Status,
	).Scan(&p.ID, &p.RequestedAt); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE ambassadors SET pending_payout = 0, updated_at = NOW() WHERE id = $1`,
		ambassadorID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// ResolvePayout marks a pending payout paid or rejected. A rejection returns
// the amount to the ambassador's pending balance.
func (r *Repository) ResolvePayout(ctx context.Context, payoutID uuid.UUID, status models.PayoutStatus) (*models.Payout, error) {
	if status != models.PayoutPaid && status != models.PayoutRejected {
		return nil, ErrPayoutResolved
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var p models.Payout
	err = tx.QueryRow(ctx, `
		SELECT id, ambassador_id, amount, status, requested_at, resolved_at
		FROM payouts WHERE id = $1 FOR UPDATE`, payoutID,
	).Scan(&p.ID, &p.AmbassadorID, &p.Amount, &p.Status, &p.RequestedAt, &p.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPayoutNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != models.PayoutPending {
		return nil, ErrPayoutResolved
	}

	if err := tx.QueryRow(ctx, `
		UPDATE payouts SET status = $2, resolved_at = NOW()
		WHERE id = $1
		RETURNING status, resolved_at`,
		payoutID, status,
	).Scan(&p.Status, &p.ResolvedAt); err != nil {
		return nil, err
	}

	if status == models.PayoutRejected {
		if _, err := tx.Exec(ctx, `
			UPDATE ambassadors SET pending_payout = pending_payout + $2, updated_at = NOW()
			WHERE id = $1`,
			p.AmbassadorID, p.Amount); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}
