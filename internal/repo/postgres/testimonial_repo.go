package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/testimonialnudger/api/internal/domain"
)

// ErrTokenSpent is returned by CreateWithToken when the conditional token
// update matched no row: another submission consumed the token first (or it
// expired between lookup and commit). The insert is rolled back.
var ErrTokenSpent = errors.New("request token already spent")

type TestimonialRepo interface {
	// CreateWithToken inserts the testimonial and consumes the token in one
	// transaction; both commit or neither does.
	CreateWithToken(ctx context.Context, t *domain.Testimonial, token string) (*domain.Testimonial, error)
	GetByID(ctx context.Context, id int64) (*domain.Testimonial, error)
	ListByBusiness(ctx context.Context, businessID int64, f domain.TestimonialFilter, limit, offset int) ([]domain.Testimonial, error)
	UpdateStatus(ctx context.Context, id, businessID int64, status domain.TestimonialStatus) (*domain.Testimonial, error)
	// Delete removes the record and returns its media URLs for cleanup.
	// found is false when no row matched.
	Delete(ctx context.Context, id, businessID int64) (mediaURLs []string, found bool, err error)
}

type TestimonialRepoImpl struct{ pool *pgxpool.Pool }

func NewTestimonialRepo(pool *pgxpool.Pool) *TestimonialRepoImpl {
	return &TestimonialRepoImpl{pool: pool}
}

const testimonialCols = `id, content, rating, status, business_id, client_id, media_urls, created_at, updated_at`

func (r *TestimonialRepoImpl) CreateWithToken(ctx context.Context, t *domain.Testimonial, token string) (*domain.Testimonial, error) {
	const insertQ = `INSERT INTO testimonials (
    content, rating, status, business_id, client_id, media_urls
  ) VALUES ($1,$2,$3,$4,$5,$6)
  RETURNING ` + testimonialCols

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var created domain.Testimonial
	err = tx.QueryRow(ctx, insertQ,
		t.Content, t.Rating, t.Status, t.BusinessID, t.ClientID, t.MediaURLs,
	).Scan(
		&created.ID, &created.Content, &created.Rating, &created.Status,
		&created.BusinessID, &created.ClientID, &created.MediaURLs,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ct, err := tx.Exec(ctx, consumeTokenQ, token)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrTokenSpent
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *TestimonialRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Testimonial, error) {
	const q = `SELECT ` + testimonialCols + ` FROM testimonials WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Testimonial
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.Content, &t.Rating, &t.Status,
		&t.BusinessID, &t.ClientID, &t.MediaURLs, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TestimonialRepoImpl) ListByBusiness(ctx context.Context, businessID int64, f domain.TestimonialFilter, limit, offset int) ([]domain.Testimonial, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
SELECT ` + testimonialCols + `
FROM testimonials
WHERE business_id = $1
  AND ($2::text IS NULL OR status = $2)
  AND rating >= $3
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	rows, err := r.pool.Query(ctx, q, businessID, status, f.MinRating, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ts := make([]domain.Testimonial, 0, limit)
	for rows.Next() {
		var t domain.Testimonial
		if err := rows.Scan(
			&t.ID, &t.Content, &t.Rating, &t.Status,
			&t.BusinessID, &t.ClientID, &t.MediaURLs, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	return ts, rows.Err()
}

func (r *TestimonialRepoImpl) UpdateStatus(ctx context.Context, id, businessID int64, status domain.TestimonialStatus) (*domain.Testimonial, error) {
	const q = `
UPDATE testimonials
SET status = $3, updated_at = now()
WHERE id = $1 AND business_id = $2
RETURNING ` + testimonialCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Testimonial
	err := r.pool.QueryRow(ctx, q, id, businessID, status).Scan(
		&t.ID, &t.Content, &t.Rating, &t.Status,
		&t.BusinessID, &t.ClientID, &t.MediaURLs, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TestimonialRepoImpl) Delete(ctx context.Context, id, businessID int64) ([]string, bool, error) {
	const q = `
DELETE FROM testimonials
WHERE id = $1 AND business_id = $2
RETURNING media_urls`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var mediaURLs []string
	err := r.pool.QueryRow(ctx, q, id, businessID).Scan(&mediaURLs)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return mediaURLs, true, nil
}

var _ TestimonialRepo = (*TestimonialRepoImpl)(nil)
