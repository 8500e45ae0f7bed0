package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/titan-signal/titan/pkg/outcomes"
)

func newOutcomesCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "outcomes",
		Short: "evaluate exit-feasible peak-gain outcomes for alerts that have aged into a horizon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootContext()
			defer cancel()

			a, err := newApp(ctx, log.With().Str("cmd", "outcomes").Logger())
			if err != nil {
				return err
			}
			defer a.close()

			w := outcomes.NewWorker(a.store, a.bus, a.dex, a.log)

			go a.bus.Heartbeat(ctx, "outcomes")

			runOnce := func() {
				if n, err := w.RunOnce(ctx); err != nil {
					a.log.Error().Err(err).Msg("outcomes cycle failed")
				} else {
					a.log.Info().Int("evaluated", n).Msg("outcomes_cycle")
				}
			}
			runOnce()

			interval := time.Duration(a.cfg.OutcomeRunIntervalSeconds) * time.Second
			c := cron.New()
			if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), runOnce); err != nil {
				return err
			}
			c.Start()
			defer func() { <-c.Stop().Done() }()

			<-ctx.Done()
			return nil
		},
	}
}
