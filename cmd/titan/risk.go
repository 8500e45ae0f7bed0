package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/titan-signal/titan/pkg/risk"
)

func newRiskCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "risk",
		Short: "turn decoded trades into per-token risk jobs and score them into TokenRisk rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootContext()
			defer cancel()

			a, err := newApp(ctx, log.With().Str("cmd", "risk").Logger())
			if err != nil {
				return err
			}
			defer a.close()

			w := risk.NewWorker(a.bus, a.store, a.dex, a.goplus, a.log)
			if err := w.Setup(ctx); err != nil {
				return err
			}
			go a.bus.Heartbeat(ctx, "risk")

			done := make(chan struct{}, 2)
			go func() {
				defer func() { done <- struct{}{} }()
				runBatchLoop(ctx, a.log, "risk-enqueue", func(ctx context.Context) (int, error) {
					return w.ProcessEnqueueBatch(ctx, 100, 5*time.Second)
				})
			}()
			go func() {
				defer func() { done <- struct{}{} }()
				runBatchLoop(ctx, a.log, "risk-score", func(ctx context.Context) (int, error) {
					return w.ProcessScoreBatch(ctx, 50, 5*time.Second)
				})
			}()
			<-done
			<-done
			return nil
		},
	}
}

// runBatchLoop drains a consumer-batch method until ctx is cancelled,
// logging (not aborting on) a failed batch.
func runBatchLoop(ctx context.Context, log zerolog.Logger, name string, fn func(ctx context.Context) (int, error)) {
	for ctx.Err() == nil {
		if _, err := fn(ctx); err != nil {
			log.Error().Err(err).Str("loop", name).Msg("batch failed")
		}
	}
}
