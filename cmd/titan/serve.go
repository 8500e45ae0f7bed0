package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/titan-signal/titan/pkg/queryapi"
)

func newServeCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the read-only query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootContext()
			defer cancel()

			a, err := newApp(ctx, log.With().Str("cmd", "serve").Logger())
			if err != nil {
				return err
			}
			defer a.close()

			server := queryapi.NewServer(a.store, a.bus, a.log)
			httpServer := &http.Server{
				Addr:    fmt.Sprintf(":%d", a.cfg.QueryAPIPort),
				Handler: server.Handler(),
			}

			errCh := make(chan error, 1)
			go func() { errCh <- httpServer.ListenAndServe() }()
			a.log.Info().Int("port", a.cfg.QueryAPIPort).Msg("query_api_listening")

			select {
			case <-ctx.Done():
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				return httpServer.Shutdown(shutdownCtx)
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			}
		},
	}
}
