package runner

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Run repeats cycles every interval until ctx is cancelled. Cycles never
// overlap: the next one starts at the later of start+interval and the end
// of the previous cycle. Cancellation is observed between cycles; a cycle
// already running completes. Failed cycles are logged and the loop goes on.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	r.log.Info("continuous mode", zap.Duration("interval", interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		// a timer that fired together with cancellation must not start a cycle
		if ctx.Err() != nil {
			r.log.Info("stopped")
			return nil
		}

		start := time.Now()
		_, _ = r.RunOnce(context.WithoutCancel(ctx))

		wait := interval - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}
