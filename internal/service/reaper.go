package service

import (
	"context"
	"time"

	"github.com/testimonialnudger/api/internal/repo/postgres"
	"github.com/testimonialnudger/api/pkg/logger"
)

// Reaper periodically purges tokens that have been dead (used or expired)
// for longer than the grace period, bounding storage growth.
type Reaper struct {
	tokens   postgres.TokenRepo
	interval time.Duration
	grace    time.Duration
}

func NewReaper(tokens postgres.TokenRepo, interval, grace time.Duration) *Reaper {
	return &Reaper{tokens: tokens, interval: interval, grace: grace}
}

// Run blocks until ctx is canceled. One sweep runs immediately on start.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	purged, err := r.tokens.DeleteExpired(ctx, r.grace)
	if err != nil {
		logger.ErrorContext(ctx, "Token reaper sweep failed", "error", err)
		return
	}
	if purged > 0 {
		logger.InfoContext(ctx, "Token reaper purged dead tokens", "count", purged)
	}
}
