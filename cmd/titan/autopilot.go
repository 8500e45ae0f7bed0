package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/titan-signal/titan/pkg/autopilot"
)

func newAutopilotCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "autopilot",
		Short: "ingest and churn the watchlist's candidate pairs on a randomized cadence",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootContext()
			defer cancel()

			a, err := newApp(ctx, log.With().Str("cmd", "autopilot").Logger())
			if err != nil {
				return err
			}
			defer a.close()

			w := autopilot.NewWorker(a.store, a.dex, a.goplus, a.cfg.Pilot, a.log)

			go a.bus.Heartbeat(ctx, "autopilot")

			w.Run(ctx)
			return nil
		},
	}
}
