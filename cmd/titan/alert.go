package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/titan-signal/titan/pkg/alerts"
	"github.com/titan-signal/titan/pkg/worker"
)

func newAlertCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "alert",
		Short: "NetEV-gate recent buys into trade_conviction and pool_activity alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootContext()
			defer cancel()

			a, err := newApp(ctx, log.With().Str("cmd", "alert").Logger())
			if err != nil {
				return err
			}
			defer a.close()

			w := alerts.NewWorker(
				a.store, a.narratorService(), a.gasCostEstimator(),
				a.cfg.Tiers, a.cfg.NetEV,
				a.cfg.AlertsLookbackHours, a.cfg.AlertsCooldownMinutes,
				a.log,
			)

			go a.bus.Heartbeat(ctx, "alerts")

			interval := time.Duration(a.cfg.AlertsIntervalSeconds) * time.Second
			worker.RunLoop(ctx, interval, func(ctx context.Context) {
				if n, err := w.RunOnce(ctx); err != nil {
					a.log.Error().Err(err).Msg("alerts cycle failed")
				} else {
					a.log.Info().Int("alerts", n).Msg("alerts_cycle")
				}
			})
			return nil
		},
	}
}
