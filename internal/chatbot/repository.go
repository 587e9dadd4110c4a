package chatbot

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/club-pata-amiga/backend/internal/models"
)

// Repository persists chatbot sessions.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create deactivates any prior sessions for the member and inserts the new
// one, so at most one session per member is active.
func (r *Repository) Create(ctx context.Context, s *models.ChatSession) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE chat_sessions SET active = FALSE WHERE external_member_id = $1 AND active = TRUE`,
		s.ExternalMemberID); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO chat_sessions (external_member_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, active, created_at`,
		s.ExternalMemberID, s.Token, s.ExpiresAt,
	).Scan(&s.ID, &s.Active, &s.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetActiveByToken returns the active unexpired session for a token, or nil.
func (r *Repository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*models.ChatSession, error) {
	var s models.ChatSession
	err := r.pool.QueryRow(ctx, `
		SELECT id, external_member_id, token, expires_at, active, created_at
		FROM chat_sessions
		WHERE token = $1 AND active = TRUE AND expires_at > $2`,
		token, now,
	).Scan(&s.ID, &s.ExternalMemberID, &s.Token, &s.ExpiresAt, &s.Active, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
