package jobs

import (
	"context"
	"time"

	applog "neurocart/internal/log"
)

// Schedule enqueues a job of kind every interval until ctx is cancelled. When runNow is
// set the first job goes out immediately.
func Schedule(ctx context.Context, q Enqueuer, kind string, every time.Duration, runNow bool) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	applog.Info(nil, "jobs.schedule.start", map[string]any{"kind": kind, "every": every.String()})
	if runNow {
		enqueueTick(ctx, q, kind)
	}
	for {
		select {
		case <-ticker.C:
			enqueueTick(ctx, q, kind)
		case <-ctx.Done():
			applog.Info(nil, "jobs.schedule.stop", map[string]any{"kind": kind})
			return
		}
	}
}

func enqueueTick(ctx context.Context, q Enqueuer, kind string) {
	j, err := NewJob(kind, nil)
	if err == nil {
		err = q.Enqueue(ctx, j, 0)
	}
	if err != nil {
		applog.Error(nil, "jobs.schedule.fail", err, map[string]any{"kind": kind})
	}
}
