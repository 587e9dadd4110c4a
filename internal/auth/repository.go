package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/club-pata-amiga/backend/internal/models"
)

// Repository handles user persistence for auth.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, password_hash, full_name, phone, role, external_auth_id, membership_status, registration_date, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Phone, &u.Role,
		&u.ExternalAuthID, &u.MembershipStatus, &u.RegistrationDate, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. New members start with membership_status pending.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName, phone string, role models.Role, externalAuthID *string) (*models.User, error) {
	const q = `INSERT INTO users (id, email, password_hash, full_name, phone, role, external_auth_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, fullName, phone, role, externalAuthID))
}

// GetByEmail returns the user with the given email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

// GetByID returns the user with the given id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

// GetByExternalAuthID returns the user linked to a legacy identity-provider
// id, or nil when no account carries it.
func (r *Repository) GetByExternalAuthID(ctx context.Context, externalID string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE external_auth_id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, q, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}
