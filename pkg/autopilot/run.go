package autopilot

import (
	"context"
	"math/rand"
	"time"

	"github.com/robfig/cron/v3"
)

// NextSleep picks a uniformly random sleep duration in
// [minSeconds, maxSeconds], matching the original's randomized cycle
// interval meant to avoid every worker hammering DexScreener in lockstep.
func (w *Worker) NextSleep() time.Duration {
	min, max := w.cfg.MinSleepSeconds, w.cfg.MaxSleepSeconds
	if max <= min {
		return time.Duration(min) * time.Second
	}
	seconds := min + rand.Intn(max-min+1)
	return time.Duration(seconds) * time.Second
}

// jitteredSchedule adapts NextSleep into a cron.Schedule so the cron
// driver ticks on the worker's randomized cadence instead of a fixed
// expression.
type jitteredSchedule struct {
	worker *Worker
}

func (s jitteredSchedule) Next(t time.Time) time.Time {
	return t.Add(s.worker.NextSleep())
}

// Run drives RunOnce on the worker's randomized cadence until ctx is
// cancelled, logging (not aborting on) a failed cycle.
func (w *Worker) Run(ctx context.Context) {
	runOnce := func() {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Error().Err(err).Msg("autopilot_iteration_failed")
		}
	}
	runOnce()

	c := cron.New()
	c.Schedule(jitteredSchedule{worker: w}, cron.FuncJob(runOnce))
	c.Start()
	defer func() { <-c.Stop().Done() }()

	<-ctx.Done()
}
