package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OTPCleaner removes expired login codes.
type OTPCleaner interface {
	DeleteExpiredOTPs(ctx context.Context, now time.Time) (int, error)
}

// StartOTPCleaner deletes expired login codes every interval until ctx is
// done.
func StartOTPCleaner(
	ctx context.Context,
	repo OTPCleaner,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed, err := repo.DeleteExpiredOTPs(ctx, now)
				if err != nil {
					log.Error("failed to clean expired otps", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned expired otps", zap.Int("removed", removed))
				}
			}
		}
	}()
}
