package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/titan-signal/titan/pkg/decode"
	"github.com/titan-signal/titan/pkg/dexregistry"
)

func newDecodeCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "decode",
		Short: "consume raw chain events and decode them into candidate trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootContext()
			defer cancel()

			a, err := newApp(ctx, log.With().Str("cmd", "decode").Logger())
			if err != nil {
				return err
			}
			defer a.close()

			registry := dexregistry.New()
			resolver := decode.NewCachedResolver(a.bus, a.rpcClients)
			decoder := decode.New(registry, resolver)
			w := decode.NewWorker(a.bus, a.store, decoder, a.log)

			if err := w.Setup(ctx); err != nil {
				return err
			}
			go a.bus.Heartbeat(ctx, "decoder")

			runBatchLoop(ctx, a.log, "decoder", func(ctx context.Context) (int, error) {
				return w.ProcessBatch(ctx, 100, 5*time.Second)
			})
			return nil
		},
	}
}
