package profiler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/titan-signal/titan/pkg/config"
	"github.com/titan-signal/titan/pkg/store"
)

// Narrator produces the alert narrative text. The Alerts/Profiler
// workers share one instance backed by Ollama-with-template-fallback.
type Narrator interface {
	NarrateReasons(ctx context.Context, reasons store.JSONMap) string
}

// MeritUpdater runs the merit engine's per-cycle update and reports
// how many wallets it touched, so the Profiler cycle can report a
// combined update count the way the source's run_once does.
type MeritUpdater interface {
	RunUpdateOnce(ctx context.Context) (int, error)
}

const tierAlertCooldown = time.Hour

type Worker struct {
	store    *store.Store
	narrator Narrator
	merit    MeritUpdater
	tiers    config.TierThresholds
	log      zerolog.Logger
}

func NewWorker(st *store.Store, narrator Narrator, merit MeritUpdater, tiers config.TierThresholds, log zerolog.Logger) *Worker {
	return &Worker{store: st, narrator: narrator, merit: merit, tiers: tiers, log: log.With().Str("worker", "profiler").Logger()}
}

// RunOnce loads every wallet-attributed trade, recomputes positions
// and wallet metrics wholesale, and returns the greater of wallets
// touched and merit rows updated — matching the source's
// max(updates, merit_updates) cycle-completion count.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	trades, err := w.store.AllWalletTrades(ctx)
	if err != nil {
		return 0, err
	}
	byWallet := FoldTrades(trades)

	updates := 0
	for key, positions := range byWallet {
		ignored, err := w.store.IsWalletIgnored(ctx, key.Chain, key.Address)
		if err != nil {
			return updates, err
		}
		if ignored {
			w.log.Info().Str("chain", key.Chain).Str("wallet", key.Address).Msg("skipped ignored wallet")
			continue
		}

		for token, pos := range positions {
			if err := w.store.UpsertPosition(ctx, store.Position{
				Chain: key.Chain, WalletAddress: key.Address, TokenAddress: token,
				Quantity: pos.Quantity, AveragePrice: pos.AveragePrice,
			}); err != nil {
				return updates, err
			}
		}

		totalValue := TotalValue(positions)
		if err := w.store.UpsertWalletMetric(ctx, key.Chain, key.Address, totalValue); err != nil {
			return updates, err
		}

		tier := TierForValue(totalValue, w.tiers.Ocean, w.tiers.Shadow, w.tiers.Titan)
		if err := w.maybeTierAlert(ctx, key.Chain, key.Address, tier, totalValue); err != nil {
			return updates, err
		}
		updates++
	}

	meritUpdates := 0
	if w.merit != nil {
		meritUpdates, err = w.merit.RunUpdateOnce(ctx)
		if err != nil {
			return updates, err
		}
	}
	if meritUpdates > updates {
		return meritUpdates, nil
	}
	return updates, nil
}

// maybeTierAlert raises a wallet_tier alert unless the tier is
// "ignore", or the last wallet_tier alert within the cooldown window
// already named this exact tier — a same-tier re-fire within the hour
// is noise, a tier change is always worth surfacing immediately.
func (w *Worker) maybeTierAlert(ctx context.Context, chain, wallet, tier string, totalValue float64) error {
	if tier == "ignore" {
		return nil
	}
	cutoff := time.Now().UTC().Add(-tierAlertCooldown)
	existing, err := w.store.LatestWalletTierAlert(ctx, chain, wallet, cutoff)
	if err != nil {
		return err
	}
	if existing != nil {
		if existingTier, ok := existing.Reasons.GetString("tier"); ok && existingTier == tier {
			return nil
		}
	}

	reasons := store.JSONMap{"tier": tier, "total_value": totalValue}
	narrative := ""
	if w.narrator != nil {
		narrative = w.narrator.NarrateReasons(ctx, reasons)
	}
	alert := store.Alert{
		Chain: chain, WalletAddress: &wallet, AlertType: "wallet_tier",
		Reasons: reasons, CreatedAt: time.Now().UTC(),
	}
	if narrative != "" {
		alert.Narrative = &narrative
	}
	_, err = w.store.InsertAlert(ctx, alert)
	return err
}
