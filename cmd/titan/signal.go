package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// rootContext returns a context cancelled on SIGINT/SIGTERM, the same
// shutdown join every subcommand's run loop selects against.
func rootContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
