package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/testimonialnudger/api/internal/domain"
)

type BusinessRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Business, error)
	// LinkTestimonial appends a testimonial back-reference for fast listing.
	LinkTestimonial(ctx context.Context, businessID, testimonialID int64) error
}

type BusinessRepoImpl struct{ pool *pgxpool.Pool }

func NewBusinessRepo(pool *pgxpool.Pool) *BusinessRepoImpl { return &BusinessRepoImpl{pool: pool} }

const businessCols = `id, name, owner_email, logo_url, service_type, created_at, updated_at`

func (r *BusinessRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Business, error) {
	const q = `SELECT ` + businessCols + ` FROM businesses WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.Business
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.Name, &b.OwnerEmail, &b.LogoURL, &b.ServiceType, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BusinessRepoImpl) LinkTestimonial(ctx context.Context, businessID, testimonialID int64) error {
	const q = `
UPDATE businesses
SET testimonial_ids = array_append(testimonial_ids, $2), updated_at = now()
WHERE id = $1 AND NOT ($2 = ANY(testimonial_ids))`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, businessID, testimonialID)
	return err
}

var _ BusinessRepo = (*BusinessRepoImpl)(nil)
