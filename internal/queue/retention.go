package queue

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
)

// RunRetentionLoop periodically sweeps completed/failed jobs until ctx is
// cancelled.
func RunRetentionLoop(ctx context.Context, store *Store, interval time.Duration, logger arbor.ILogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Sweep(ctx); err != nil {
				logger.Warn().Err(err).Msg("retention sweep failed")
			}
		}
	}
}
