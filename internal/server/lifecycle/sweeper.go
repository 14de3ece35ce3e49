package lifecycle

import (
	"context"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/logging"
)

type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// RunSweeper calls Sweep every interval until ctx is done. A non-positive
// interval disables it; sweeps are then left to an external trigger.
func RunSweeper(ctx context.Context, s sweeper, interval time.Duration, log logging.Logger) {
	if interval <= 0 {
		log.Info(ctx, "periodic sweep disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				log.Error(ctx, "sweep failed", "error", err.Error())
			}
		}
	}
}
