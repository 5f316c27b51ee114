package member

import (
	"context"
	"time"

	"github.com/communitylink/membership-api/internal/shared/logger"
)

// ExpirySweeper periodically expires members past their expiry date.
type ExpirySweeper struct {
	lifecycle *Lifecycle
	interval  time.Duration
}

func NewExpirySweeper(lifecycle *Lifecycle, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{lifecycle: lifecycle, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ctx = logger.With(ctx, "job", "expiry_sweep")
	log := logger.FromContext(ctx)
	if s.interval <= 0 {
		log.Info("Expiry sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.lifecycle.ExpireDue(ctx); err != nil {
			log.Error("Expiry sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			log.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
