package outcomes

import (
	"context"
	"time"

	"github.com/titan-signal/titan/pkg/risk"
	"github.com/titan-signal/titan/pkg/store"
	"github.com/titan-signal/titan/pkg/streambus"
)

// EvaluateAlertHorizon builds the SignalOutcome for one (alert,
// horizon) pair, or nil when the alert has no token. A token with no
// risk row is still evaluated, against an empty risk window.
func EvaluateAlertHorizon(ctx context.Context, st *store.Store, bus *streambus.Bus, dex *risk.DexScreenerClient,
	alert store.Alert, horizonMinutes int) (*store.SignalOutcome, error) {

	if alert.TokenAddress == nil || *alert.TokenAddress == "" {
		return nil, nil
	}
	token := *alert.TokenAddress
	start := alert.CreatedAt
	end := alert.CreatedAt.Add(time.Duration(horizonMinutes) * time.Minute)

	tr, err := st.GetTokenRisk(ctx, alert.Chain, token)
	if err != nil {
		return nil, err
	}
	snapshots := ExtractSnapshots(tr)
	window := AssessWindow(snapshots, start, end)

	var minSlip, maxSlip *float64
	if len(window.InWindow) > 0 {
		minSlip, maxSlip = EstimateSlippage(window.InWindow)
	}

	var pairAddr *string
	if v, ok := alert.Reasons.GetString("pair_address"); ok && v != "" {
		pairAddr = &v
	}
	prices, pricesInsufficient, err := PriceSeries(ctx, st, bus, dex, alert.Chain, token, pairAddr, start, end)
	if err != nil {
		return nil, err
	}

	var entryPtr *float64
	if v, ok := alert.Reasons.GetFloat("entry_price"); ok {
		entryPtr = &v
	}
	entry := EntryPrice(entryPtr, prices)

	var peakGain, drawdown *float64
	if !pricesInsufficient && entry > 0 {
		p, d := RawPeakAndDrawdown(prices, entry)
		peakGain, drawdown = &p, &d
	}

	rawPeakGain := peakGain
	var exitFeasiblePeakGain *float64
	var exitFeasiblePeakTime *time.Time
	// was_sellable_entire_window starts as the window's sellability
	// verdict (nil when fewer than 2 snapshots fell in the window),
	// then is overwritten by the exit-feasible-peak pass whenever the
	// price series is usable, win or lose.
	wasSellable := window.Sellable

	if !pricesInsufficient && entry > 0 {
		gain, at, allFeasible := ExitFeasiblePeak(prices, window.InWindow, entry)
		exitFeasiblePeakGain, exitFeasiblePeakTime = gain, at
		wasSellable = &allFeasible
		if gain == nil {
			peakGain = nil
		} else {
			peakGain = rawPeakGain
		}
	}

	wasSellableForNet := wasSellable != nil && *wasSellable
	net := NetReturn(peakGain, maxSlip, window.TrapFlag, wasSellableForNet)

	outcome := store.SignalOutcome{
		AlertID:                 alert.ID,
		HorizonMinutes:          horizonMinutes,
		WasSellableEntireWindow: wasSellable,
		MinExitSlippage1k:       minSlip,
		MaxExitSlippage1k:       maxSlip,
		TradeablePeakGain:       peakGain,
		ExitFeasiblePeakGain:    exitFeasiblePeakGain,
		ExitFeasiblePeakTime:    exitFeasiblePeakTime,
		TradeableDrawdown:       drawdown,
		NetTradeableReturnEst:   net,
		TrapFlag:                window.TrapFlag,
		EvaluatedAt:             time.Now().UTC(),
	}
	return &outcome, nil
}
