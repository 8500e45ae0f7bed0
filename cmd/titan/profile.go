package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/titan-signal/titan/pkg/merit"
	"github.com/titan-signal/titan/pkg/profiler"
	"github.com/titan-signal/titan/pkg/worker"
)

func newProfileCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "rebuild wallet positions, tiers, and merit scores on a fixed cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootContext()
			defer cancel()

			a, err := newApp(ctx, log.With().Str("cmd", "profile").Logger())
			if err != nil {
				return err
			}
			defer a.close()

			meritWorker := merit.NewWorker(a.store, a.cfg.Merit, a.log)
			w := profiler.NewWorker(a.store, a.narratorService(), meritWorker, a.cfg.Tiers, a.log)

			go a.bus.Heartbeat(ctx, "profiler")
			go a.bus.Heartbeat(ctx, "merit")

			interval := time.Duration(a.cfg.ProfilerIntervalSeconds) * time.Second
			worker.RunLoop(ctx, interval, func(ctx context.Context) {
				if n, err := w.RunOnce(ctx); err != nil {
					a.log.Error().Err(err).Msg("profiler cycle failed")
				} else {
					a.log.Info().Int("updated", n).Msg("profiler_cycle")
				}
			})
			return nil
		},
	}
}
