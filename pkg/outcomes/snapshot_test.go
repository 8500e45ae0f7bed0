package outcomes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/titan-signal/titan/pkg/store"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestExtractSnapshotsFromHistory(t *testing.T) {
	tr := &store.TokenRisk{
		Chain:   "ethereum",
		Address: "0xabc",
		Components: store.JSONMap{
			"history": []interface{}{
				map[string]interface{}{
					"updated_at":             "2026-01-01T00:00:00Z",
					"flags":                  []interface{}{"low_liquidity"},
					"max_suggested_size_usd": 500.0,
					"liquidity_usd":          5000.0,
				},
			},
		},
	}
	snaps := ExtractSnapshots(tr)
	if assert.Len(t, snaps, 1) {
		assert.Equal(t, mustTime("2026-01-01T00:00:00Z"), *snaps[0].UpdatedAt)
		assert.Contains(t, snaps[0].Flags, "low_liquidity")
		assert.Equal(t, 500.0, *snaps[0].MaxSuggestedSizeUSD)
	}
}

func TestExtractSnapshotsSynthesizesFromCurrentState(t *testing.T) {
	now := time.Now().UTC()
	tr := &store.TokenRisk{
		Chain: "ethereum", Address: "0xabc", UpdatedAt: now,
		Flags: store.JSONList{"honeypot"},
		Components: store.JSONMap{
			"max_suggested_size_usd": 2000.0,
		},
	}
	snaps := ExtractSnapshots(tr)
	if assert.Len(t, snaps, 1) {
		assert.Contains(t, snaps[0].Flags, "honeypot")
		assert.Equal(t, 2000.0, *snaps[0].MaxSuggestedSizeUSD)
	}
}

func TestIsExitFeasibleRequiresBothSizeAndSellable(t *testing.T) {
	size := 1500.0
	s := Snapshot{MaxSuggestedSizeUSD: &size, Sellable: boolPtr(true)}
	assert.True(t, s.IsExitFeasible())

	small := 500.0
	s2 := Snapshot{MaxSuggestedSizeUSD: &small, Sellable: boolPtr(true)}
	assert.False(t, s2.IsExitFeasible())

	s3 := Snapshot{MaxSuggestedSizeUSD: &size, Sellable: boolPtr(false)}
	assert.False(t, s3.IsExitFeasible())
}

func TestIsSellableFallsBackToFlags(t *testing.T) {
	s := Snapshot{Flags: []string{"honeypot"}}
	assert.False(t, s.IsSellable())

	s2 := Snapshot{Flags: []string{}}
	assert.True(t, s2.IsSellable())
}

func TestAssessWindowInsufficientBelowTwoSnapshots(t *testing.T) {
	t0 := mustTime("2026-01-01T00:00:00Z")
	snaps := []Snapshot{{UpdatedAt: &t0}}
	w := AssessWindow(snaps, t0.Add(-time.Hour), t0.Add(time.Hour))
	assert.True(t, w.RiskInsufficient)
	assert.Nil(t, w.Sellable)
}

func TestAssessWindowTrapOnCriticalFlag(t *testing.T) {
	t0 := mustTime("2026-01-01T00:00:00Z")
	t1 := t0.Add(time.Minute)
	snaps := []Snapshot{
		{UpdatedAt: &t0, Flags: []string{}},
		{UpdatedAt: &t1, Flags: []string{"honeypot"}},
	}
	w := AssessWindow(snaps, t0.Add(-time.Hour), t1.Add(time.Hour))
	assert.False(t, w.RiskInsufficient)
	assert.True(t, w.TrapFlag)
	assert.NotNil(t, w.Sellable)
	assert.False(t, *w.Sellable)
}

func TestAssessWindowSellableWhenNoCriticalFlags(t *testing.T) {
	t0 := mustTime("2026-01-01T00:00:00Z")
	t1 := t0.Add(time.Minute)
	snaps := []Snapshot{
		{UpdatedAt: &t0, Flags: []string{}},
		{UpdatedAt: &t1, Flags: []string{}},
	}
	w := AssessWindow(snaps, t0.Add(-time.Hour), t1.Add(time.Hour))
	assert.True(t, *w.Sellable)
	assert.False(t, w.TrapFlag)
}

func TestEstimateSlippagePrefersDirectValue(t *testing.T) {
	direct := 0.1
	size := 2000.0
	snaps := []Snapshot{{ExitSlippage1k: &direct}, {MaxSuggestedSizeUSD: &size}}
	min, max := EstimateSlippage(snaps)
	if assert.NotNil(t, min) && assert.NotNil(t, max) {
		assert.InDelta(t, 0.01, *min, 1e-9) // derived from size=2000: 0.02*1000/2000=0.01
		assert.InDelta(t, 0.1, *max, 1e-9)
	}
}

func TestEstimateSlippageClampsToFloorAndCeiling(t *testing.T) {
	tiny := 1.0
	huge := 1_000_000.0
	snaps := []Snapshot{{MaxSuggestedSizeUSD: &tiny}, {MaxSuggestedSizeUSD: &huge}}
	min, max := EstimateSlippage(snaps)
	assert.InDelta(t, 0.0025, *min, 1e-9)
	assert.InDelta(t, 0.40, *max, 1e-9)
}

func TestEstimateSlippageNilWhenNoCandidates(t *testing.T) {
	snaps := []Snapshot{{}}
	min, max := EstimateSlippage(snaps)
	assert.Nil(t, min)
	assert.Nil(t, max)
}
