package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/testimonialnudger/api/internal/domain"
)

// ClientRepo maps emails to stable client identities.
type ClientRepo interface {
	// Resolve finds-or-creates the identity for an email. Name and role are
	// merged non-destructively: an existing non-empty value is never
	// overwritten. Idempotent under retry; the unique index on email makes a
	// create-race collapse into the same row.
	Resolve(ctx context.Context, email, name, role string) (*domain.ClientIdentity, error)
	FindByEmail(ctx context.Context, email string) (*domain.ClientIdentity, error)
	// LinkTestimonial appends a testimonial back-reference for fast listing.
	LinkTestimonial(ctx context.Context, clientID, testimonialID int64) error
}

type ClientRepoImpl struct{ pool *pgxpool.Pool }

func NewClientRepo(pool *pgxpool.Pool) *ClientRepoImpl { return &ClientRepoImpl{pool: pool} }

const clientCols = `id, email, name, role, created_at, updated_at`

func (r *ClientRepoImpl) Resolve(ctx context.Context, email, name, role string) (*domain.ClientIdentity, error) {
	const q = `
INSERT INTO clients (email, name, role)
VALUES (lower($1), $2, $3)
ON CONFLICT (email) DO UPDATE SET
	name = COALESCE(NULLIF(clients.name, ''), NULLIF(EXCLUDED.name, ''), ''),
	role = COALESCE(NULLIF(clients.role, ''), NULLIF(EXCLUDED.role, ''), ''),
	updated_at = now()
RETURNING ` + clientCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.ClientIdentity
	err := r.pool.QueryRow(ctx, q, email, name, role).Scan(
		&c.ID, &c.Email, &c.Name, &c.Role, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.ClientIdentity, error) {
	const q = `SELECT ` + clientCols + ` FROM clients WHERE email = lower($1)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.ClientIdentity
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&c.ID, &c.Email, &c.Name, &c.Role, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepoImpl) LinkTestimonial(ctx context.Context, clientID, testimonialID int64) error {
	const q = `
UPDATE clients
SET testimonial_ids = array_append(testimonial_ids, $2), updated_at = now()
WHERE id = $1 AND NOT ($2 = ANY(testimonial_ids))`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, clientID, testimonialID)
	return err
}

var _ ClientRepo = (*ClientRepoImpl)(nil)
