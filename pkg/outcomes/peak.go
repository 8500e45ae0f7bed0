package outcomes

import (
	"sort"
	"time"
)

// PricePoint is one priced observation in a token's window, either
// from a decoded trade or a DexScreener fallback quote.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// EntryPrice prefers an explicit reasons.entry_price over the first
// point in the combined series.
func EntryPrice(reasonsEntryPrice *float64, prices []PricePoint) float64 {
	if reasonsEntryPrice != nil && *reasonsEntryPrice > 0 {
		return *reasonsEntryPrice
	}
	if len(prices) == 0 {
		return 0
	}
	return prices[0].Price
}

// RawPeakAndDrawdown computes max(price)/entry-1 and min(price)/entry-1
// over a combined price series.
func RawPeakAndDrawdown(prices []PricePoint, entry float64) (peak, drawdown float64) {
	if len(prices) == 0 || entry <= 0 {
		return 0, 0
	}
	max, min := prices[0].Price, prices[0].Price
	for _, p := range prices[1:] {
		if p.Price > max {
			max = p.Price
		}
		if p.Price < min {
			min = p.Price
		}
	}
	return max/entry - 1, min/entry - 1
}

// ExitFeasiblePeak finds, for each price sample, the nearest
// prior-or-equal risk snapshot by timestamp (a sorted binary search,
// not a linear rescan per sample) and only credits the sample's gain
// toward the peak when that snapshot is exit-feasible. It returns the
// max exit-feasible gain and the time it occurred, plus whether every
// in-window snapshot with a timestamp was individually exit-feasible
// (the sellability reported for the whole window).
func ExitFeasiblePeak(prices []PricePoint, inWindowSnapshots []Snapshot, entry float64) (gain *float64, at *time.Time, wasSellableEntireWindow bool) {
	type timedSnapshot struct {
		t        time.Time
		feasible bool
	}
	var timed []timedSnapshot
	for _, s := range inWindowSnapshots {
		if s.UpdatedAt == nil {
			continue
		}
		timed = append(timed, timedSnapshot{t: *s.UpdatedAt, feasible: s.IsExitFeasible()})
	}
	if len(timed) == 0 {
		return nil, nil, false
	}
	sort.Slice(timed, func(i, j int) bool { return timed[i].t.Before(timed[j].t) })

	times := make([]time.Time, len(timed))
	for i, ts := range timed {
		times[i] = ts.t
	}

	anyFeasible := false
	for _, ts := range timed {
		if ts.feasible {
			anyFeasible = true
			break
		}
	}
	if !anyFeasible || entry <= 0 {
		return nil, nil, false
	}

	var maxGain *float64
	var maxTime *time.Time
	for _, p := range prices {
		idx := bisectRight(times, p.Time) - 1
		if idx < 0 {
			continue
		}
		if !timed[idx].feasible {
			continue
		}
		g := p.Price/entry - 1
		if maxGain == nil || g > *maxGain {
			gCopy := g
			tCopy := p.Time
			maxGain = &gCopy
			maxTime = &tCopy
		}
	}
	if maxGain == nil {
		return nil, nil, false
	}

	allFeasible := true
	for _, ts := range timed {
		if !ts.feasible {
			allFeasible = false
			break
		}
	}
	return maxGain, maxTime, allFeasible
}

// bisectRight mirrors Python's bisect.bisect_right: the insertion
// point to the right of any existing equal entries, so a tie goes to
// the snapshot at that exact time rather than the one before it.
func bisectRight(sorted []time.Time, v time.Time) int {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if v.Before(sorted[mid]) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

const (
	fixedGasCost     = 0.006
	defaultMaxSlippage = 0.02
	trapReturnCeiling  = -0.15
)

// NetReturn applies the fixed gas cost and slippage estimate to a peak
// gain, then forces the return below the trap ceiling when the window
// was trapped or not sellable throughout. Returns nil when peakGain is
// nil.
func NetReturn(peakGain *float64, maxSlippage *float64, trapFlag bool, sellable bool) *float64 {
	if peakGain == nil {
		return nil
	}
	slip := defaultMaxSlippage
	if maxSlippage != nil {
		slip = *maxSlippage
	}
	net := *peakGain - fixedGasCost - slip
	if trapFlag || !sellable {
		if net > trapReturnCeiling {
			net = trapReturnCeiling
		}
	}
	return &net
}
