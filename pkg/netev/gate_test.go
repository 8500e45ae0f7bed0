package netev

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampExpectedMove(t *testing.T) {
	assert.Equal(t, 0.2, ClampExpectedMove(0.5))
	assert.Equal(t, 0.0, ClampExpectedMove(-0.1))
	assert.Equal(t, 0.08, ClampExpectedMove(0.08))
}

func TestSlippageOrDefault(t *testing.T) {
	v := 0.05
	assert.Equal(t, 0.05, SlippageOrDefault(&v))
	assert.Equal(t, 0.02, SlippageOrDefault(nil))
}

func TestEvaluateRejectsMissingSize(t *testing.T) {
	r := Evaluate(Inputs{SizeUSD: 0})
	assert.False(t, r.Pass)
	assert.Equal(t, "missing_trade_size_usd", r.Reason)
}

func TestEvaluateRejectsHighGas(t *testing.T) {
	// usd_value=500, expected_move=0.08 -> 40, gas=35, slippage 2% -> 10: netev = 40-35-10 = -5
	r := Evaluate(Inputs{SizeUSD: 500, ExpectedMove: 0.08, Slippage: 0.02, GasCostUSD: 35, MinUSDProfit: 10, MinROI: 0.02})
	assert.False(t, r.Pass)
	assert.Equal(t, "netev_below_usd_floor", r.Reason)
}

func TestEvaluatePasses(t *testing.T) {
	// same trade, gas $5: netev_usd = 40 - 5 - 10 = 25
	r := Evaluate(Inputs{SizeUSD: 500, ExpectedMove: 0.08, Slippage: 0.02, GasCostUSD: 5, MinUSDProfit: 10, MinROI: 0.02})
	assert.True(t, r.Pass)
	assert.InDelta(t, 25.0, r.NetEVUSD, 1e-9)
	assert.InDelta(t, 0.05, r.NetEVROI, 1e-9)
}

func TestEvaluateRejectsLowROIEvenWithUSDPass(t *testing.T) {
	r := Evaluate(Inputs{SizeUSD: 100_000, ExpectedMove: 0.08, Slippage: 0.02, GasCostUSD: 5990, MinUSDProfit: 10, MinROI: 0.02})
	assert.False(t, r.Pass)
	assert.Equal(t, "netev_below_roi_floor", r.Reason)
}

func TestConvictionClampsRatio(t *testing.T) {
	c := Conviction(80, 5_000_000, 10_000)
	assert.Equal(t, 88.0, c) // (0.8*60) + (1.0*40) = 88
}

func TestConvictionPartialRatio(t *testing.T) {
	c := Conviction(50, 5_000, 10_000)
	assert.Equal(t, 50.0, c) // (0.5*60) + (0.5*40) = 50
}

func TestAvgAndP95SingleValue(t *testing.T) {
	avg, p95 := AvgAndP95([]float64{7})
	assert.Equal(t, 7.0, avg)
	assert.Equal(t, 7.0, p95)
}

func TestAvgAndP95MultipleValues(t *testing.T) {
	avg, p95 := AvgAndP95([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	assert.Equal(t, 5.5, avg)
	assert.InDelta(t, 9.55, p95, 1e-6)
}
