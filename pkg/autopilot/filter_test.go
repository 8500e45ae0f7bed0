package autopilot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/titan-signal/titan/pkg/config"
	"github.com/titan-signal/titan/pkg/risk"
)

func TestCalculateAgeHoursFromSeconds(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	created := now.Add(-2 * time.Hour).Unix()
	age := CalculateAgeHours(float64(created), now)
	if assert.NotNil(t, age) {
		assert.InDelta(t, 2.0, *age, 0.01)
	}
}

func TestCalculateAgeHoursFromMilliseconds(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	created := now.Add(-3 * time.Hour).UnixMilli()
	age := CalculateAgeHours(float64(created), now)
	if assert.NotNil(t, age) {
		assert.InDelta(t, 3.0, *age, 0.01)
	}
}

func TestCalculateAgeHoursNilWhenMissing(t *testing.T) {
	assert.Nil(t, CalculateAgeHours(0, time.Now()))
}

func TestPriorityScore(t *testing.T) {
	assert.Equal(t, 120, PriorityScore(100_000, 10_000)) // 100 + 20
	assert.Equal(t, 10_000, PriorityScore(50_000_000, 0))  // clamps
}

func baseCfg() config.AutopilotConstants {
	return config.AutopilotConstants{
		LiquidityFloorETH:     25_000,
		LiquidityFloorBSC:     15_000,
		VolumeFloor24h:        10_000,
		MinAgeHours:           1,
		AgeFallbackMultiplier: 3,
		MaxPairsPerChain:      200,
	}
}

func TestPassesQualityFilterRejectsBelowFloors(t *testing.T) {
	cfg := baseCfg()
	age := 5.0
	assert.False(t, PassesQualityFilter(1000, 20_000, &age, cfg, 25_000))
	assert.False(t, PassesQualityFilter(30_000, 100, &age, cfg, 25_000))
}

func TestPassesQualityFilterRejectsTooYoung(t *testing.T) {
	cfg := baseCfg()
	age := 0.5
	assert.False(t, PassesQualityFilter(30_000, 20_000, &age, cfg, 25_000))
}

func TestPassesQualityFilterUnknownAgeRequiresFallbackMultiplier(t *testing.T) {
	cfg := baseCfg()
	// Plain floors pass but fallback (3x) does not -> rejected when age unknown.
	assert.False(t, PassesQualityFilter(30_000, 20_000, nil, cfg, 25_000))
	// Both floors clear 3x -> accepted.
	assert.True(t, PassesQualityFilter(80_000, 35_000, nil, cfg, 25_000))
}

func TestPassesQualityFilterAccepts(t *testing.T) {
	cfg := baseCfg()
	age := 10.0
	assert.True(t, PassesQualityFilter(30_000, 20_000, &age, cfg, 25_000))
}

func TestChainLiquidityFloor(t *testing.T) {
	cfg := baseCfg()
	assert.Equal(t, 15_000.0, ChainLiquidityFloor("bsc", cfg))
	assert.Equal(t, 25_000.0, ChainLiquidityFloor("ethereum", cfg))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xabc", NormalizeAddress(" 0xABC "))
	assert.Equal(t, "", NormalizeAddress(""))
}

func TestHasCriticalGoPlusFlags(t *testing.T) {
	assert.True(t, HasCriticalGoPlusFlags(risk.GoPlusResult{IsHoneypot: "1"}))
	assert.True(t, HasCriticalGoPlusFlags(risk.GoPlusResult{IsBlacklisted: "1"}))
	assert.False(t, HasCriticalGoPlusFlags(risk.GoPlusResult{IsProxy: "1"}))
}

func TestFilterPairsForChainFallsBackWhenNoneMatch(t *testing.T) {
	pairs := []risk.DexScreenerPair{{ChainID: "polygon"}, {ChainID: "polygon"}}
	out := FilterPairsForChain(pairs, "ethereum")
	assert.Len(t, out, 2) // falls back to the full set
}

func TestFilterPairsForChainKeepsMatching(t *testing.T) {
	pairs := []risk.DexScreenerPair{{ChainID: "ethereum"}, {ChainID: "bsc"}}
	out := FilterPairsForChain(pairs, "ethereum")
	if assert.Len(t, out, 1) {
		assert.Equal(t, "ethereum", out[0].ChainID)
	}
}
