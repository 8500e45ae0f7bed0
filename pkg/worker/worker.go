// Package worker provides the cancellable-loop scaffolding every titan
// worker is built on: a ticker-driven run loop that stays responsive to
// context cancellation at every suspension point, generalized from the
// ticker idiom the teacher's cmd/tracker main loop used for its scan
// and analysis cycles.
package worker

import (
	"context"
	"time"
)

// RunLoop invokes fn immediately, then again every interval, until ctx
// is cancelled. It is the Go expression of the original's
// `wait_for(stop_event.wait(), timeout=interval)` cancellable-sleep
// pattern: the wait is a select on ctx.Done() and the ticker channel,
// so shutdown is never blocked behind a full interval.
func RunLoop(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	fn(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// RunLoopVariable is RunLoop for workers whose sleep interval is
// recomputed each cycle (the autopilot's randomized sleep window).
func RunLoopVariable(ctx context.Context, nextInterval func() time.Duration, fn func(ctx context.Context)) {
	for {
		fn(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(nextInterval()):
		}
	}
}

// Sleep is a cancellable sleep: it returns early (with ctx.Err()) when
// ctx is cancelled, matching every worker's `wait_for(stop, timeout)`
// suspension-point requirement from the concurrency model.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
