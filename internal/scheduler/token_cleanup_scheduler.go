package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const cleanupTimeout = time.Minute

// TokenPurger deletes refresh tokens that are past their expiry.
type TokenPurger interface {
	PurgeExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// TokenCleanupScheduler periodically removes expired refresh tokens.
type TokenCleanupScheduler struct {
	cron   *cron.Cron
	purger TokenPurger
	spec   string
}

func NewTokenCleanupScheduler(purger TokenPurger, spec string) *TokenCleanupScheduler {
	return &TokenCleanupScheduler{
		cron:   cron.New(),
		purger: purger,
		spec:   spec,
	}
}

func (s *TokenCleanupScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		logger.Error("Failed to add cron job for token cleanup", err, logger.Fields{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Token cleanup scheduler started", logger.Fields{
		"spec": s.spec,
	})
	return nil
}

func (s *TokenCleanupScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	purged, err := s.purger.PurgeExpiredRefreshTokens(ctx)
	if err != nil {
		logger.Error("Scheduled refresh token cleanup failed", err)
		return
	}
	logger.Debug("Scheduled refresh token cleanup finished", logger.Fields{
		"purged": purged,
	})
}

// Stop waits for a running job to finish.
func (s *TokenCleanupScheduler) Stop() {
	logger.Info("Stopping token cleanup scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Token cleanup scheduler stopped")
}
