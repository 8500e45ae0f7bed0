// Package merit computes each wallet's Bayesian-like contribution
// score from its valid signal outcomes — weighted by earliness,
// crowding, and copycat penalties — and decides tier promotions,
// demotions, and seed decay from the result.
package merit

import (
	"math"

	"github.com/titan-signal/titan/pkg/config"
)

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clampReturn(v float64, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

// EarlyFactor rewards the first alerter on a token and tapers off for
// later followers: rank 1 gets full weight, rank 2 gets 0.7, anything
// after gets 0.5.
func EarlyFactor(rank int) float64 {
	switch {
	case rank <= 1:
		return 1.0
	case rank == 2:
		return 0.7
	default:
		return 0.5
	}
}

// CrowdingPenalty grows with the number of other high-merit wallets
// that also alerted on the same token near the same time, 0.15 per
// additional wallet beyond the first, clamped to [0, 1].
func CrowdingPenalty(highMeritCount int) float64 {
	if highMeritCount <= 1 {
		return 0
	}
	return clamp01(float64(highMeritCount-1) * 0.15)
}

// CopycatPenaltyFromDensity derives a copycat penalty from how many
// distinct wallets alerted on the same token within a tight burst
// window, used only when the wallet's own tier_reason doesn't already
// carry a known copycat_burst_score.
func CopycatPenaltyFromDensity(sameBlockDensity int) float64 {
	extra := sameBlockDensity - 1
	if extra < 0 {
		extra = 0
	}
	return clamp01(float64(extra) * 0.12)
}

// Contribution is one outcome's weighted contribution to a wallet's
// rolling merit score.
type Contribution struct {
	AlertID        int64
	TokenAddress   string
	NetReturn      float64
	EarlyFactor    float64
	CrowdingPenalty float64
	CopycatPenalty float64
	Value          float64
}

// WeighContribution folds the three penalty factors into a single
// outcome's contribution value.
func WeighContribution(netReturn, earlyFactor, crowdingPenalty, copycatPenalty float64) float64 {
	weight := earlyFactor * (1 - crowdingPenalty) * (1 - copycatPenalty)
	return netReturn * weight
}

// Stats is the valid-outcome aggregate that drives tier promotion
// checks.
type Stats struct {
	SampleSize      int
	PositiveCount   int
	AvgReturn       float64
	AvgContribution float64
}

// BaselinePrior is the Bayesian prior every wallet's merit decays
// toward absent enough observed outcomes: prior_weight * a constant.
func BaselinePrior(priorWeight float64, priorConstant float64) float64 {
	return math.Max(0, priorWeight) * priorConstant
}

// UpdateMeritScore applies the two-stage exponential decay: first
// toward the wallet's baseline prior, then — only if it has at least
// one valid outcome this cycle — toward its (clamped) observed
// average contribution. A wallet with no outcomes yet drifts toward
// its prior alone, never toward zero.
func UpdateMeritScore(oldMerit float64, priorWeight float64, stats Stats, cfg config.MeritConstants) float64 {
	baseline := BaselinePrior(priorWeight, cfg.PriorConstant)
	merit := oldMerit*cfg.Decay + baseline*(1-cfg.Decay)
	if stats.SampleSize > 0 {
		observed := clampReturn(stats.AvgContribution, cfg.ClampMin, cfg.ClampMax)
		merit = merit*cfg.Decay + observed*(1-cfg.Decay)
	}
	return merit
}

// WalletFlags are the behavioral signals a wallet's tier_reason may
// already carry from a prior cycle or an external analysis, read
// before deciding the next tier transition.
type WalletFlags struct {
	BotSuspect      bool
	CopycatDominant bool
	IntegrityScore  float64
}

// TierTransition is the outcome of one wallet's tier-transition
// evaluation: the next tier (unchanged if no rule fired) and which
// named rule, if any, fired.
type TierTransition struct {
	NextTier string
	Rule     string // "" | "ocean_to_shadow" | "shadow_to_titan" | "seed_decay_low_merit"
	Event    string // "score_update" | "promotion" | "demotion"
}

// NextTier evaluates the ocean->shadow, shadow->titan, and seed-decay
// rules in that order against the wallet's current tier, merit score,
// and outcome stats. Exactly one rule can fire per cycle; the first
// one whose guard passes wins.
func NextTier(currentTier string, source string, meritScore float64, stats Stats, flags WalletFlags, cfg config.MeritConstants) TierTransition {
	if currentTier == "ocean" {
		if stats.PositiveCount >= cfg.OceanToShadowPositive && !flags.BotSuspect && !flags.CopycatDominant {
			return TierTransition{NextTier: "shadow", Rule: "ocean_to_shadow", Event: "promotion"}
		}
	}

	if currentTier == "shadow" {
		if stats.SampleSize >= cfg.ShadowSampleMin &&
			meritScore >= cfg.ShadowMeritMin &&
			flags.IntegrityScore >= cfg.ShadowIntegrityMin {
			return TierTransition{NextTier: "titan", Rule: "shadow_to_titan", Event: "promotion"}
		}
	}

	if source == "seed_pack" && stats.SampleSize >= cfg.SeedDecaySampleMin {
		if meritScore <= cfg.SeedDecayMeritMax {
			return TierTransition{NextTier: cfg.SeedDecayTarget, Rule: "seed_decay_low_merit", Event: "demotion"}
		}
	}

	return TierTransition{NextTier: currentTier, Rule: "none", Event: "score_update"}
}
