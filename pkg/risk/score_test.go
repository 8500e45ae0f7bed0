package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTSSCleanToken(t *testing.T) {
	pairs := []DexScreenerPair{{}}
	pairs[0].Liquidity.USD = 50_000

	a := ComputeTSS(pairs, GoPlusResult{}, true)
	assert.Equal(t, 100.0, a.Score)
	assert.Empty(t, a.Flags)
}

func TestComputeTSSNoPairs(t *testing.T) {
	a := ComputeTSS(nil, GoPlusResult{}, false)
	assert.Equal(t, 70.0, a.Score)
	assert.Contains(t, a.Flags, "no_pairs")
}

func TestComputeTSSLowLiquidity(t *testing.T) {
	pairs := []DexScreenerPair{{}}
	pairs[0].Liquidity.USD = 500

	a := ComputeTSS(pairs, GoPlusResult{}, false)
	assert.Equal(t, 85.0, a.Score)
	assert.Contains(t, a.Flags, "low_liquidity")
}

func TestComputeTSSHoneypotAndBlacklisted(t *testing.T) {
	pairs := []DexScreenerPair{{}}
	pairs[0].Liquidity.USD = 50_000
	gp := GoPlusResult{IsHoneypot: "1", IsBlacklisted: "1"}

	a := ComputeTSS(pairs, gp, true)
	assert.Equal(t, 70.0, a.Score)
	assert.ElementsMatch(t, []string{"honeypot", "blacklisted"}, a.Flags)
}

func TestComputeTSSFloorsAtZero(t *testing.T) {
	gp := GoPlusResult{IsHoneypot: "1", IsBlacklisted: "1", IsProxy: "1", IsMintable: "1"}
	a := ComputeTSS(nil, gp, true)
	assert.Equal(t, 0.0, a.Score)
}

func TestDegradedAssessment(t *testing.T) {
	a := Degraded()
	assert.Equal(t, 0.0, a.Score)
	assert.Equal(t, []string{"data_unavailable"}, a.Flags)
}

func TestGoPlusResultFlags(t *testing.T) {
	gp := GoPlusResult{IsHoneypot: "1", CannotSellAll: "1"}
	assert.True(t, gp.Honeypot())
	assert.True(t, gp.IsCritical())
	assert.False(t, gp.Blacklisted())
}

func TestMaxLiquidityAndVolume(t *testing.T) {
	pairs := []DexScreenerPair{{}, {}}
	pairs[0].Liquidity.USD = 1000
	pairs[1].Liquidity.USD = 5000
	pairs[0].Volume.H24 = 100
	pairs[1].Volume.H24 = 200

	assert.Equal(t, 5000.0, MaxLiquidityUSD(pairs))
	assert.Equal(t, 300.0, SumVolume24h(pairs))
}
