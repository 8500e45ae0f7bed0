package merit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/titan-signal/titan/pkg/config"
)

func TestEarlyFactor(t *testing.T) {
	assert.Equal(t, 1.0, EarlyFactor(1))
	assert.Equal(t, 0.7, EarlyFactor(2))
	assert.Equal(t, 0.5, EarlyFactor(3))
	assert.Equal(t, 0.5, EarlyFactor(10))
}

func TestCrowdingPenalty(t *testing.T) {
	assert.Equal(t, 0.0, CrowdingPenalty(0))
	assert.Equal(t, 0.0, CrowdingPenalty(1))
	assert.InDelta(t, 0.15, CrowdingPenalty(2), 1e-9)
	assert.Equal(t, 1.0, CrowdingPenalty(100)) // clamped
}

func TestCopycatPenaltyFromDensity(t *testing.T) {
	assert.Equal(t, 0.0, CopycatPenaltyFromDensity(1))
	assert.InDelta(t, 0.12, CopycatPenaltyFromDensity(2), 1e-9)
	assert.Equal(t, 1.0, CopycatPenaltyFromDensity(50))
}

func TestWeighContribution(t *testing.T) {
	v := WeighContribution(0.5, 1.0, 0.0, 0.0)
	assert.Equal(t, 0.5, v)

	v = WeighContribution(0.5, 0.7, 0.15, 0.12)
	assert.InDelta(t, 0.5*0.7*0.85*0.88, v, 1e-9)
}

func baseCfg() config.MeritConstants {
	return config.MeritConstants{
		Decay:                  0.9,
		PriorConstant:          0.05,
		ClampMin:               -1.0,
		ClampMax:               3.0,
		ShadowToTitanThreshold: 50,
		ShadowSampleMin:        20,
		ShadowMeritMin:         50,
		ShadowIntegrityMin:     0.6,
		OceanToShadowPositive:  3,
		SeedDecaySampleMin:     10,
		SeedDecayMeritMax:      5,
		SeedDecayTarget:        "ocean",
	}
}

func TestUpdateMeritScoreNoOutcomesDriftsTowardPrior(t *testing.T) {
	cfg := baseCfg()
	merit := UpdateMeritScore(0, 100, Stats{}, cfg)
	assert.InDelta(t, 100*cfg.PriorConstant*(1-cfg.Decay), merit, 1e-9)
}

func TestUpdateMeritScoreWithOutcomesBlendsObserved(t *testing.T) {
	cfg := baseCfg()
	stats := Stats{SampleSize: 5, AvgContribution: 2.0}
	merit := UpdateMeritScore(10, 0, stats, cfg)
	assert.Greater(t, merit, 0.0)
}

func TestUpdateMeritScoreClampsObservedContribution(t *testing.T) {
	cfg := baseCfg()
	stats := Stats{SampleSize: 1, AvgContribution: 1000}
	merit := UpdateMeritScore(0, 0, stats, cfg)
	// observed contribution clamps to ClampMax=3, so result bounded tightly
	assert.Less(t, merit, 1.0)
}

func TestNextTierOceanToShadowPromotion(t *testing.T) {
	cfg := baseCfg()
	stats := Stats{PositiveCount: 3}
	transition := NextTier("ocean", "autopilot", 10, stats, WalletFlags{}, cfg)
	assert.Equal(t, "shadow", transition.NextTier)
	assert.Equal(t, "ocean_to_shadow", transition.Rule)
}

func TestNextTierOceanBlockedByBotSuspect(t *testing.T) {
	cfg := baseCfg()
	stats := Stats{PositiveCount: 10}
	transition := NextTier("ocean", "autopilot", 10, stats, WalletFlags{BotSuspect: true}, cfg)
	assert.Equal(t, "ocean", transition.NextTier)
	assert.Equal(t, "none", transition.Rule)
}

func TestNextTierShadowToTitanPromotion(t *testing.T) {
	cfg := baseCfg()
	stats := Stats{SampleSize: 25}
	transition := NextTier("shadow", "autopilot", 60, stats, WalletFlags{IntegrityScore: 0.9}, cfg)
	assert.Equal(t, "titan", transition.NextTier)
	assert.Equal(t, "shadow_to_titan", transition.Rule)
}

func TestNextTierShadowBlockedByLowIntegrity(t *testing.T) {
	cfg := baseCfg()
	stats := Stats{SampleSize: 25}
	transition := NextTier("shadow", "autopilot", 60, stats, WalletFlags{IntegrityScore: 0.1}, cfg)
	assert.Equal(t, "shadow", transition.NextTier)
}

func TestNextTierSeedDecay(t *testing.T) {
	cfg := baseCfg()
	stats := Stats{SampleSize: 15}
	transition := NextTier("titan", "seed_pack", 1, stats, WalletFlags{}, cfg)
	assert.Equal(t, "ocean", transition.NextTier)
	assert.Equal(t, "seed_decay_low_merit", transition.Rule)
}

func TestNextTierNoRuleFiresPreservesTier(t *testing.T) {
	cfg := baseCfg()
	transition := NextTier("titan", "manual", 80, Stats{}, WalletFlags{}, cfg)
	assert.Equal(t, "titan", transition.NextTier)
	assert.Equal(t, "none", transition.Rule)
}
