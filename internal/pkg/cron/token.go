package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RefreshTokenPurger deletes refresh tokens that can no longer be used
type RefreshTokenPurger interface {
	PurgeExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

type TokenJobs struct {
	repo RefreshTokenPurger
	// revoked tokens are kept this long for auditing before they are purged
	retention time.Duration
	now       func() time.Time
}

func NewTokenJobs(repo RefreshTokenPurger, retention time.Duration) *TokenJobs {
	return &TokenJobs{repo: repo, retention: retention, now: time.Now}
}

func (j *TokenJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("purge_expired_refresh_tokens", 6*time.Hour, time.Minute, j.PurgeExpiredRefreshTokens)
}

// PurgeExpiredRefreshTokens removes tokens expired or revoked before the retention window
func (j *TokenJobs) PurgeExpiredRefreshTokens(ctx context.Context) error {
	before := j.now().Add(-j.retention)

	n, err := j.repo.PurgeExpiredRefreshTokens(ctx, before)
	if err != nil {
		return fmt.Errorf("failed to purge refresh tokens: %w", err)
	}

	slog.Info("Purged refresh tokens", "count", n, "before", before)
	return nil
}
