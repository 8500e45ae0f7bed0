package outcomes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(minutesOffset int) time.Time {
	base := mustTime("2026-01-01T00:00:00Z")
	return base.Add(time.Duration(minutesOffset) * time.Minute)
}

func feasibleSnapshot(minutesOffset int, feasible bool) Snapshot {
	t := ts(minutesOffset)
	size := 500.0
	if feasible {
		size = 5000.0
	}
	sellable := true
	return Snapshot{UpdatedAt: &t, MaxSuggestedSizeUSD: &size, Sellable: &sellable}
}

func TestExitFeasiblePeakNoSnapshotsReturnsNil(t *testing.T) {
	gain, at, sellable := ExitFeasiblePeak([]PricePoint{{Time: ts(0), Price: 1.0}}, nil, 1.0)
	assert.Nil(t, gain)
	assert.Nil(t, at)
	assert.False(t, sellable)
}

func TestExitFeasiblePeakNoneFeasibleReturnsNil(t *testing.T) {
	snaps := []Snapshot{feasibleSnapshot(0, false), feasibleSnapshot(10, false)}
	prices := []PricePoint{{Time: ts(1), Price: 1.5}, {Time: ts(11), Price: 2.0}}
	gain, at, sellable := ExitFeasiblePeak(prices, snaps, 1.0)
	assert.Nil(t, gain)
	assert.Nil(t, at)
	assert.False(t, sellable)
}

func TestExitFeasiblePeakUsesNearestPriorSnapshot(t *testing.T) {
	// Snapshot at t=0 is feasible (size 5000), snapshot at t=10 is not (size 500).
	// A price sample at t=5 resolves to the t=0 snapshot (feasible) -> counted.
	// A price sample at t=15 resolves to the t=10 snapshot (not feasible) -> excluded.
	snaps := []Snapshot{feasibleSnapshot(0, true), feasibleSnapshot(10, false)}
	prices := []PricePoint{
		{Time: ts(5), Price: 2.0},  // nearest prior: t=0, feasible, gain = 2.0/1.0-1 = 1.0
		{Time: ts(15), Price: 5.0}, // nearest prior: t=10, not feasible, excluded despite huge price
	}
	gain, at, wasSellable := ExitFeasiblePeak(prices, snaps, 1.0)
	if assert.NotNil(t, gain) {
		assert.InDelta(t, 1.0, *gain, 1e-9)
		assert.Equal(t, ts(5), *at)
	}
	assert.False(t, wasSellable) // not every in-window snapshot was feasible
}

func TestExitFeasiblePeakAllFeasibleReportsSellableWindow(t *testing.T) {
	snaps := []Snapshot{feasibleSnapshot(0, true), feasibleSnapshot(10, true)}
	prices := []PricePoint{{Time: ts(5), Price: 1.2}, {Time: ts(15), Price: 1.5}}
	gain, _, wasSellable := ExitFeasiblePeak(prices, snaps, 1.0)
	assert.NotNil(t, gain)
	assert.True(t, wasSellable)
}

func TestExitFeasiblePeakSampleBeforeAnySnapshotExcluded(t *testing.T) {
	snaps := []Snapshot{feasibleSnapshot(10, true)}
	prices := []PricePoint{{Time: ts(5), Price: 9.0}} // before the only snapshot
	gain, at, _ := ExitFeasiblePeak(prices, snaps, 1.0)
	assert.Nil(t, gain)
	assert.Nil(t, at)
}

func TestRawPeakAndDrawdown(t *testing.T) {
	prices := []PricePoint{{Price: 1.0}, {Price: 1.5}, {Price: 0.8}}
	peak, drawdown := RawPeakAndDrawdown(prices, 1.0)
	assert.InDelta(t, 0.5, peak, 1e-9)
	assert.InDelta(t, -0.2, drawdown, 1e-9)
}

func TestEntryPricePrefersReasonsValue(t *testing.T) {
	explicit := 2.0
	assert.Equal(t, 2.0, EntryPrice(&explicit, []PricePoint{{Price: 1.0}}))
	assert.Equal(t, 1.0, EntryPrice(nil, []PricePoint{{Price: 1.0}}))
}

func TestNetReturnCapsBelowTrapCeiling(t *testing.T) {
	gain := 0.5
	net := NetReturn(&gain, nil, true, true)
	assert.InDelta(t, -0.15, *net, 1e-9)
}

func TestNetReturnSubtractsGasAndSlippage(t *testing.T) {
	gain := 0.5
	slip := 0.03
	net := NetReturn(&gain, &slip, false, true)
	assert.InDelta(t, 0.5-0.006-0.03, *net, 1e-9)
}

func TestNetReturnNilWhenPeakNil(t *testing.T) {
	assert.Nil(t, NetReturn(nil, nil, false, true))
}
