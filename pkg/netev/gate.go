package netev

import "math"

const (
	defaultSlippage     = 0.02
	expectedMoveMin     = 0.0
	expectedMoveMax     = 0.2
)

// Inputs is everything the NetEV gate formula needs for one trade.
type Inputs struct {
	SizeUSD            float64
	ExpectedMove        float64 // already clamped/defaulted by the caller
	Slippage            float64
	GasCostUSD          float64
	MinUSDProfit        float64
	MinROI              float64
}

// Result is the gate's verdict plus the intermediate values needed for
// the alert's reasons payload.
type Result struct {
	NetEVUSD float64
	NetEVROI float64
	Pass     bool
	Reason   string // "" on pass; a short rejection code on failure
}

// ClampExpectedMove bounds the expected-move input to [0, 0.2]
// regardless of how large a chain default might otherwise be — the
// 0.2 ceiling is a deliberate risk control, not an oversight.
func ClampExpectedMove(raw float64) float64 {
	return math.Max(expectedMoveMin, math.Min(expectedMoveMax, raw))
}

// SlippageOrDefault reads components.estimated_slippage if present,
// else falls back to 2%.
func SlippageOrDefault(slippage *float64) float64 {
	if slippage != nil {
		return *slippage
	}
	return defaultSlippage
}

// Evaluate computes netev_usd = size*expected_move - gas - size*slippage,
// netev_roi = netev_usd/size, and passes when both clear their floor.
func Evaluate(in Inputs) Result {
	if in.SizeUSD <= 0 {
		return Result{Reason: "missing_trade_size_usd"}
	}

	netevUSD := in.SizeUSD*in.ExpectedMove - in.GasCostUSD - in.SizeUSD*in.Slippage
	netevROI := netevUSD / in.SizeUSD

	if netevUSD < in.MinUSDProfit {
		return Result{NetEVUSD: netevUSD, NetEVROI: netevROI, Reason: "netev_below_usd_floor"}
	}
	if netevROI < in.MinROI {
		return Result{NetEVUSD: netevUSD, NetEVROI: netevROI, Reason: "netev_below_roi_floor"}
	}
	return Result{NetEVUSD: netevUSD, NetEVROI: netevROI, Pass: true}
}

// Conviction implements the §4.6 scoring formula, shared by wallet and
// pool alerts: tss contributes 60%, a value/size ratio against the
// titan threshold contributes the remaining 40%.
func Conviction(tss float64, valueOrSize, titanThreshold float64) float64 {
	ratio := valueOrSize / titanThreshold
	if ratio > 1 {
		ratio = 1
	}
	c := (tss/100)*60 + ratio*40
	return math.Round(c*100) / 100
}
