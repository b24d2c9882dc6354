package task

import (
	"context"

	"go.uber.org/zap"
)

// StaleBookingExpirer releases bookings whose payment hold has lapsed.
type StaleBookingExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// BookingExpiryJob periodically expires unpaid bookings.
type BookingExpiryJob struct {
	expirer StaleBookingExpirer
	logger  *zap.Logger
}

func NewBookingExpiryJob(expirer StaleBookingExpirer, logger *zap.Logger) *BookingExpiryJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingExpiryJob{expirer: expirer, logger: logger}
}

// Run expires one batch of stale bookings.
func (job *BookingExpiryJob) Run(ctx context.Context) error {
	expiredCount, err := job.expirer.ExpireStale(ctx)
	if err != nil {
		return err
	}
	if expiredCount > 0 {
		job.logger.Info("bookings_expired", zap.Int("count", expiredCount))
	}
	return nil
}
