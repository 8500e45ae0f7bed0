package outcomes

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/titan-signal/titan/pkg/risk"
	"github.com/titan-signal/titan/pkg/store"
	"github.com/titan-signal/titan/pkg/streambus"
)

const eligibleAlertsPerHorizon = 200

// Worker is the Outcomes component: a polling loop, not a stream
// consumer, since it reasons over alert age rather than new events.
type Worker struct {
	store *store.Store
	bus   *streambus.Bus
	dex   *risk.DexScreenerClient
	log   zerolog.Logger
}

func NewWorker(st *store.Store, bus *streambus.Bus, dex *risk.DexScreenerClient, log zerolog.Logger) *Worker {
	return &Worker{store: st, bus: bus, dex: dex, log: log.With().Str("worker", "outcomes").Logger()}
}

// RunOnce evaluates up to 200 eligible alerts per horizon, oldest
// first, inserting one SignalOutcome row per (alert, horizon) that
// produces a verdict.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	inserted := 0
	for _, horizon := range Horizons {
		cutoff := now.Add(-time.Duration(horizon) * time.Minute)
		alerts, err := w.store.AlertsEligibleForHorizon(ctx, cutoff, horizon, eligibleAlertsPerHorizon)
		if err != nil {
			return inserted, err
		}
		for _, alert := range alerts {
			outcome, err := EvaluateAlertHorizon(ctx, w.store, w.bus, w.dex, alert, horizon)
			if err != nil {
				w.log.Warn().Err(err).Int64("alert_id", alert.ID).Int("horizon", horizon).Msg("outcome evaluation failed")
				continue
			}
			if outcome == nil {
				continue
			}
			if err := w.store.InsertSignalOutcome(ctx, *outcome); err != nil {
				w.log.Warn().Err(err).Int64("alert_id", alert.ID).Msg("outcome insert failed")
				continue
			}
			inserted++
		}
	}
	w.log.Info().Int("inserted", inserted).Msg("outcome_evaluator_complete")
	return inserted, nil
}
