package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/titan-signal/titan/pkg/queryapi"
)

func newStatusCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "print each worker's heartbeat freshness and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootContext()
			defer cancel()

			a, err := newApp(ctx, log.With().Str("cmd", "status").Logger())
			if err != nil {
				return err
			}
			defer a.close()

			fmt.Println(strings.Repeat("-", 48))
			fmt.Println("  titan worker status")
			fmt.Println(strings.Repeat("-", 48))
			for _, w := range queryapi.Workers {
				age, seen, err := a.bus.HeartbeatAge(ctx, w)
				switch {
				case err != nil:
					color.Red("  %-12s error: %v", w, err)
				case !seen:
					color.Red("  %-12s no heartbeat seen", w)
				case age >= queryapi.FreshHeartbeatAge:
					color.Yellow("  %-12s last seen %s ago (stale)", w, age.Round(time.Second))
				default:
					color.Green("  %-12s last seen %s ago", w, age.Round(time.Second))
				}
			}
			fmt.Println(strings.Repeat("-", 48))
			return nil
		},
	}
}
