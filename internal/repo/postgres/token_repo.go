package postgres

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/testimonialnudger/api/internal/domain"
)

// TokenRepo is the single source of truth for issuance and
// redemption-eligibility of testimonial request tokens.
type TokenRepo interface {
	// Issue persists a fresh unguessable token with expiry now+ttl.
	Issue(ctx context.Context, businessID int64, clientEmail, clientName, serviceType string, ttl time.Duration) (*domain.RequestToken, error)
	// FindRedeemable returns the token only while it is unused and unexpired.
	// Absent, expired and already-used all come back as (nil, nil) so callers
	// cannot distinguish them.
	FindRedeemable(ctx context.Context, token string) (*domain.RequestToken, error)
	// MarkUsed flips used atomically; exactly one caller wins under races.
	MarkUsed(ctx context.Context, token string) (bool, error)
	// DeleteExpired purges tokens dead for longer than the grace period.
	DeleteExpired(ctx context.Context, grace time.Duration) (int64, error)
}

type TokenRepoImpl struct{ pool *pgxpool.Pool }

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepoImpl { return &TokenRepoImpl{pool: pool} }

const tokenCols = `id, token, business_id, client_email, client_name, service_type,
expires_at, used_at, created_at, updated_at`

// NewTokenString returns a URL-safe token with 256 bits of randomness.
func NewTokenString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (r *TokenRepoImpl) Issue(ctx context.Context, businessID int64, clientEmail, clientName, serviceType string, ttl time.Duration) (*domain.RequestToken, error) {
	const q = `INSERT INTO request_tokens (
    token, business_id, client_email, client_name, service_type, expires_at
  ) VALUES ($1,$2,$3,$4,$5,$6)
  RETURNING ` + tokenCols

	tok, err := NewTokenString()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.RequestToken
	err = r.pool.QueryRow(ctx, q, tok, businessID, clientEmail, clientName, serviceType, time.Now().Add(ttl)).Scan(
		&t.ID, &t.Token, &t.BusinessID, &t.ClientEmail, &t.ClientName, &t.ServiceType,
		&t.ExpiresAt, &t.UsedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepoImpl) FindRedeemable(ctx context.Context, token string) (*domain.RequestToken, error) {
	const q = `SELECT ` + tokenCols + `
FROM request_tokens
WHERE token = $1 AND used_at IS NULL AND expires_at > now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.RequestToken
	err := r.pool.QueryRow(ctx, q, token).Scan(
		&t.ID, &t.Token, &t.BusinessID, &t.ClientEmail, &t.ClientName, &t.ServiceType,
		&t.ExpiresAt, &t.UsedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil // invalid, used or expired; callers must not distinguish
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// consumeTokenQ is the one statement that burns a token: a conditional
// update, never read-then-write, so racing submissions get exactly one
// winner by row count. MarkUsed runs it standalone;
// TestimonialRepoImpl.CreateWithToken runs the same statement inside the
// submission transaction.
const consumeTokenQ = `
UPDATE request_tokens
SET used_at = now(), updated_at = now()
WHERE token = $1
  AND used_at IS NULL
  AND expires_at > now()`

func (r *TokenRepoImpl) MarkUsed(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, consumeTokenQ, token)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *TokenRepoImpl) DeleteExpired(ctx context.Context, grace time.Duration) (int64, error) {
	const q = `
DELETE FROM request_tokens
WHERE (used_at IS NOT NULL AND used_at < $1)
   OR (used_at IS NULL AND expires_at < $1)`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, time.Now().Add(-grace))
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

var _ TokenRepo = (*TokenRepoImpl)(nil)
