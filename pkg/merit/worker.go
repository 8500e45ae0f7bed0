package merit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/titan-signal/titan/pkg/config"
	"github.com/titan-signal/titan/pkg/store"
)

const (
	crowdWindow = 10 * time.Minute
	burstWindow = 5 * time.Second
)

// Worker recomputes merit scores and tier transitions for every
// wallet once per Profiler cycle.
type Worker struct {
	store *store.Store
	cfg   config.MeritConstants
	log   zerolog.Logger
}

func NewWorker(st *store.Store, cfg config.MeritConstants, log zerolog.Logger) *Worker {
	return &Worker{store: st, cfg: cfg, log: log.With().Str("worker", "merit").Logger()}
}

// RunUpdateOnce walks every wallet, recomputes its merit score from
// valid outcome contributions, and persists the new score, tier, and
// tier_reason rationale.
func (w *Worker) RunUpdateOnce(ctx context.Context) (int, error) {
	wallets, err := w.store.ListAllWallets(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, wallet := range wallets {
		if err := w.updateWallet(ctx, wallet); err != nil {
			w.log.Warn().Err(err).Str("chain", wallet.Chain).Str("wallet", wallet.Address).Msg("merit update failed")
			continue
		}
		updated++
	}
	return updated, nil
}

func (w *Worker) updateWallet(ctx context.Context, wallet store.Wallet) error {
	statsRow, err := w.store.WalletOutcomeStats(ctx, wallet.Chain, wallet.Address)
	if err != nil {
		return err
	}
	contributions, err := w.buildContributions(ctx, wallet)
	if err != nil {
		return err
	}

	avgContribution := 0.0
	if len(contributions) > 0 {
		var sum float64
		for _, c := range contributions {
			sum += c.Value
		}
		avgContribution = sum / float64(len(contributions))
	}
	stats := Stats{
		SampleSize:      statsRow.SampleSize,
		PositiveCount:   statsRow.PositiveCount,
		AvgReturn:       statsRow.AvgReturn,
		AvgContribution: avgContribution,
	}

	flags := flagsFromReason(wallet.TierReason)
	newMerit := UpdateMeritScore(wallet.MeritScore, wallet.PriorWeight, stats, w.cfg)

	currentTier := ""
	if wallet.Tier != nil {
		currentTier = *wallet.Tier
	}
	transition := NextTier(currentTier, wallet.Source, newMerit, stats, flags, w.cfg)

	rationale := buildRationale(wallet, transition, stats, newMerit, flags, contributions)
	tier := transition.NextTier
	var tierPtr *string
	if tier != "" {
		tierPtr = &tier
	}
	return w.store.UpdateWalletMerit(ctx, wallet.Chain, wallet.Address, newMerit, tierPtr, rationale)
}

// buildContributions reconstructs the per-outcome contribution chain
// for a wallet: earliness rank among currently high-merit alerters on
// the same token, a crowding penalty from concurrent high-merit
// alerters, and a copycat penalty either taken from a prior analysis
// or derived from same-token alert density in a tight burst window.
func (w *Worker) buildContributions(ctx context.Context, wallet store.Wallet) ([]Contribution, error) {
	outcomes, err := w.store.WalletValidOutcomes(ctx, wallet.Chain, wallet.Address)
	if err != nil {
		return nil, err
	}

	knownCopycat, hasKnownCopycat := knownCopycatPenalty(wallet.TierReason)

	var out []Contribution
	for _, o := range outcomes {
		firstSeen, err := w.store.FirstSeenRank(ctx, wallet.Chain, o.TokenAddress, w.cfg.ShadowToTitanThreshold)
		if err != nil {
			return nil, err
		}
		rank := len(firstSeen) + 1
		for idx, addr := range firstSeen {
			if addr == wallet.Address {
				rank = idx + 1
				break
			}
		}
		early := EarlyFactor(rank)

		crowdCount, err := w.store.CrowdCount(ctx, wallet.Chain, o.TokenAddress,
			o.AlertCreatedAt.Add(-crowdWindow), o.AlertCreatedAt.Add(crowdWindow), w.cfg.ShadowToTitanThreshold)
		if err != nil {
			return nil, err
		}
		crowding := CrowdingPenalty(crowdCount)

		var copycat float64
		if hasKnownCopycat {
			copycat = knownCopycat
		} else {
			density, err := w.store.SameBlockDensity(ctx, wallet.Chain, o.TokenAddress,
				o.AlertCreatedAt.Add(-burstWindow), o.AlertCreatedAt.Add(burstWindow))
			if err != nil {
				return nil, err
			}
			copycat = CopycatPenaltyFromDensity(density)
		}

		value := WeighContribution(o.NetReturn, early, crowding, copycat)
		out = append(out, Contribution{
			AlertID: o.AlertID, TokenAddress: o.TokenAddress, NetReturn: o.NetReturn,
			EarlyFactor: early, CrowdingPenalty: crowding, CopycatPenalty: copycat, Value: value,
		})
	}
	return out, nil
}

func flagsFromReason(reason store.JSONMap) WalletFlags {
	flags := WalletFlags{IntegrityScore: 1.0}
	if reason == nil {
		return flags
	}
	if v, ok := reason["bot_suspect"].(bool); ok {
		flags.BotSuspect = v
	}
	if v, ok := reason["copycat_dominant"].(bool); ok {
		flags.CopycatDominant = v
	}
	if v, ok := reason.GetFloat("integrity_score"); ok {
		flags.IntegrityScore = v
	}
	return flags
}

func knownCopycatPenalty(reason store.JSONMap) (float64, bool) {
	if reason == nil {
		return 0, false
	}
	v, ok := reason.GetFloat("copycat_burst_score")
	if !ok {
		return 0, false
	}
	return clamp01(v), true
}

func buildRationale(wallet store.Wallet, transition TierTransition, stats Stats, merit float64, flags WalletFlags, contributions []Contribution) store.JSONMap {
	fromTier := ""
	if wallet.Tier != nil {
		fromTier = *wallet.Tier
	}
	rationale := store.JSONMap{
		"updated_at":         time.Now().UTC().Format(time.RFC3339),
		"from_tier":          fromTier,
		"sample_size":        stats.SampleSize,
		"positive_outcomes":  stats.PositiveCount,
		"avg_valid_return":   stats.AvgReturn,
		"avg_contribution":   stats.AvgContribution,
		"merit_score":        merit,
		"bot_suspect":        flags.BotSuspect,
		"copycat_dominant":   flags.CopycatDominant,
		"integrity_score":    flags.IntegrityScore,
		"event":              transition.Event,
		"rule":               transition.Rule,
		"last_merit_update_at": time.Now().UTC().Format(time.RFC3339),
	}
	switch transition.Event {
	case "promotion":
		rationale["last_promotion_reason"] = transition.Rule
	case "demotion":
		rationale["last_demotion_reason"] = transition.Rule
	}
	if existing, ok := wallet.TierReason["last_promotion_reason"]; ok && rationale["last_promotion_reason"] == nil {
		rationale["last_promotion_reason"] = existing
	}
	if existing, ok := wallet.TierReason["last_demotion_reason"]; ok && rationale["last_demotion_reason"] == nil {
		rationale["last_demotion_reason"] = existing
	}

	summary := store.JSONMap{
		"sample_size":      len(contributions),
		"avg_contribution": stats.AvgContribution,
	}
	if len(contributions) > 0 {
		last := contributions[len(contributions)-1]
		summary["latest"] = store.JSONMap{
			"alert_id":                  last.AlertID,
			"token_address":             last.TokenAddress,
			"net_tradeable_return_est":  last.NetReturn,
			"early_factor":              last.EarlyFactor,
			"crowding_penalty":          last.CrowdingPenalty,
			"copycat_penalty":           last.CopycatPenalty,
			"contribution":              last.Value,
		}
	}
	rationale["last_contribution_summary"] = summary
	return rationale
}
