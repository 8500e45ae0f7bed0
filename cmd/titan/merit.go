package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/titan-signal/titan/pkg/merit"
)

// newMeritCmd is a one-shot utility: the merit engine normally runs
// embedded inside each profiler cycle (see profile.go), so this exists
// for an operator who wants to force a recompute without waiting for
// the next cycle, not a competing long-running loop.
func newMeritCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "merit",
		Short: "force one merit recompute cycle across every wallet and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootContext()
			defer cancel()

			a, err := newApp(ctx, log.With().Str("cmd", "merit").Logger())
			if err != nil {
				return err
			}
			defer a.close()

			w := merit.NewWorker(a.store, a.cfg.Merit, a.log)
			n, err := w.RunUpdateOnce(ctx)
			if err != nil {
				return err
			}
			a.log.Info().Int("updated", n).Msg("merit_recompute_done")
			return nil
		},
	}
}
