package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"evbooking/internal/service"
)

// NoShowSweeper periodically marks overdue bookings as no-shows through the
// normal lifecycle contract. It lives outside the core rules: disabling it
// changes nothing but who pulls the trigger.
type NoShowSweeper struct {
	lifecycle *service.Lifecycle
	interval  time.Duration
	grace     time.Duration
	logger    *zap.Logger
}

// NewNoShowSweeper builds sweeper.
func NewNoShowSweeper(lifecycle *service.Lifecycle, interval, grace time.Duration, logger *zap.Logger) *NoShowSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &NoShowSweeper{
		lifecycle: lifecycle,
		interval:  interval,
		grace:     grace,
		logger:    logger,
	}
}

// Run ticks until ctx is cancelled.
func (s *NoShowSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := s.lifecycle.SweepNoShows(ctx, s.grace)
			if err != nil {
				s.logger.Warn("no-show sweep failed", zap.Error(err))
				continue
			}
			if swept > 0 {
				s.logger.Info("no-show sweep finished", zap.Int("swept", swept))
			}
		}
	}
}
