// Package alerts runs the Alerts worker (§4.6): it scans recent buys,
// NetEV-gates them into trade_conviction alerts, and separately raises
// pool_activity alerts when a watched pair sees trade flow with no
// resolvable USD size.
package alerts

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/titan-signal/titan/pkg/config"
	"github.com/titan-signal/titan/pkg/netev"
	"github.com/titan-signal/titan/pkg/profiler"
	"github.com/titan-signal/titan/pkg/store"
)

const alertTypeTradeConviction = "trade_conviction"
const alertTypePoolActivity = "pool_activity"

// Narrator produces the alert narrative text, shared with the
// Profiler worker's tier alerts.
type Narrator interface {
	NarrateReasons(ctx context.Context, reasons store.JSONMap) string
}

// GasEstimator resolves a trade's gas cost in USD via the three-tier
// receipt/rolling/default priority.
type GasEstimator interface {
	Estimate(ctx context.Context, chain, txHash string) (netev.GasEstimate, error)
}

type Worker struct {
	store    *store.Store
	narrator Narrator
	gas      GasEstimator
	tiers    config.TierThresholds
	netevCfg map[config.Chain]config.NetEVConstants
	lookback time.Duration
	cooldown time.Duration
	log      zerolog.Logger
}

func NewWorker(st *store.Store, narrator Narrator, gas GasEstimator, tiers config.TierThresholds, netevCfg map[config.Chain]config.NetEVConstants, lookbackHours, cooldownMinutes int, log zerolog.Logger) *Worker {
	return &Worker{
		store: st, narrator: narrator, gas: gas, tiers: tiers, netevCfg: netevCfg,
		lookback: time.Duration(lookbackHours) * time.Hour,
		cooldown: time.Duration(cooldownMinutes) * time.Minute,
		log:      log.With().Str("worker", "alerts").Logger(),
	}
}

// RunOnce scans buys from the lookback window, newest first, and
// returns the number of alerts raised.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	since := time.Now().UTC().Add(-w.lookback)
	trades, err := w.store.RecentBuys(ctx, since)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, trade := range trades {
		if trade.TokenAddress == nil {
			continue
		}

		ok, err := w.tryPoolActivity(ctx, trade)
		if err != nil {
			w.log.Warn().Err(err).Str("tx", trade.TxHash).Msg("pool_activity check failed")
		} else if ok {
			created++
			continue
		}

		ok, err = w.tryTradeConviction(ctx, trade)
		if err != nil {
			w.log.Warn().Err(err).Str("tx", trade.TxHash).Msg("trade_conviction check failed")
			continue
		}
		if ok {
			created++
		}
	}

	w.log.Info().Int("alerts", created).Msg("alerts_worker_cycle")
	return created, nil
}

// tryPoolActivity implements §4.6 point 2: a trade on an active watch
// pair with no resolvable USD size is itself the signal, no wallet
// metric or NetEV evaluation needed.
func (w *Worker) tryPoolActivity(ctx context.Context, trade store.Trade) (bool, error) {
	if trade.PairAddress == nil || *trade.PairAddress == "" {
		return false, nil
	}
	if trade.USDValue != nil {
		return false, nil
	}
	pair, err := w.store.GetWatchPair(ctx, trade.Chain, *trade.PairAddress)
	if err != nil {
		return false, err
	}
	if pair == nil || !pair.Active(time.Now().UTC()) {
		return false, nil
	}

	tr, err := w.store.GetTokenRisk(ctx, trade.Chain, *trade.TokenAddress)
	if err != nil {
		return false, err
	}
	if tr == nil {
		return false, nil
	}

	if trade.WalletAddress != nil {
		ignored, err := w.store.IsWalletIgnored(ctx, trade.Chain, *trade.WalletAddress)
		if err != nil {
			return false, err
		}
		if ignored {
			return false, nil
		}
	}

	cool, err := w.inCooldown(ctx, trade.Chain, trade.WalletAddress, trade.TokenAddress, alertTypePoolActivity)
	if err != nil {
		return false, err
	}
	if cool {
		return false, nil
	}

	size := tradeSize(trade)
	tss := tr.TSS
	conviction := netev.Conviction(tss, size, w.tiers.Titan)

	reasons := store.JSONMap{
		"conviction":   conviction,
		"tss":          tss,
		"pair_address": *trade.PairAddress,
		"regime":       classifyRegime(conviction),
		"trade":        tradeReasons(trade),
	}
	if trade.Price != nil && *trade.Price > 0 {
		reasons["entry_price"] = *trade.Price
	}

	return true, w.emit(ctx, store.Alert{
		Chain:         trade.Chain,
		WalletAddress: trade.WalletAddress,
		TokenAddress:  trade.TokenAddress,
		AlertType:     alertTypePoolActivity,
		Conviction:    &conviction,
		Reasons:       reasons,
		CreatedAt:     time.Now().UTC(),
	})
}

// tryTradeConviction implements §4.6 point 3: requires a wallet
// metric and a non-ignored wallet, applies cooldown, then the NetEV
// gate.
func (w *Worker) tryTradeConviction(ctx context.Context, trade store.Trade) (bool, error) {
	if trade.WalletAddress == nil {
		return false, nil
	}
	tr, err := w.store.GetTokenRisk(ctx, trade.Chain, *trade.TokenAddress)
	if err != nil {
		return false, err
	}
	if tr == nil {
		return false, nil
	}

	ignored, err := w.store.IsWalletIgnored(ctx, trade.Chain, *trade.WalletAddress)
	if err != nil {
		return false, err
	}
	if ignored {
		return false, nil
	}

	metric, err := w.store.GetWalletMetric(ctx, trade.Chain, *trade.WalletAddress)
	if err != nil {
		return false, err
	}
	if metric == nil {
		return false, nil
	}

	cool, err := w.inCooldown(ctx, trade.Chain, trade.WalletAddress, trade.TokenAddress, alertTypeTradeConviction)
	if err != nil {
		return false, err
	}
	if cool {
		return false, nil
	}

	result, gateReasons, err := w.evaluateGate(ctx, trade, tr)
	if err != nil {
		return false, err
	}
	if !result.Pass {
		w.log.Debug().Str("reason", result.Reason).Str("tx", trade.TxHash).Msg("netev_gate_rejected")
		return false, nil
	}

	conviction := netev.Conviction(tr.TSS, metric.TotalValue, w.tiers.Titan)
	tier := profiler.TierForValue(metric.TotalValue, w.tiers.Ocean, w.tiers.Shadow, w.tiers.Titan)

	reasons := store.JSONMap{
		"conviction":          conviction,
		"tier":                tier,
		"wallet_total_value":  metric.TotalValue,
		"tss":                 tr.TSS,
		"cooldown_minutes":    int(w.cooldown.Minutes()),
		"regime":              classifyRegime(conviction),
		"trade":               tradeReasons(trade),
		"netev":               gateReasons,
	}
	if trade.Price != nil && *trade.Price > 0 {
		reasons["entry_price"] = *trade.Price
	}
	if trade.PairAddress != nil && *trade.PairAddress != "" {
		reasons["pair_address"] = *trade.PairAddress
	}

	return true, w.emit(ctx, store.Alert{
		Chain:         trade.Chain,
		WalletAddress: trade.WalletAddress,
		TokenAddress:  trade.TokenAddress,
		AlertType:     alertTypeTradeConviction,
		TSS:           &tr.TSS,
		Conviction:    &conviction,
		Reasons:       reasons,
		CreatedAt:     time.Now().UTC(),
	})
}

// evaluateGate implements the §4.6 NetEV gate formula end to end.
func (w *Worker) evaluateGate(ctx context.Context, trade store.Trade, tr *store.TokenRisk) (netev.Result, store.JSONMap, error) {
	sizeUSD := 0.0
	if trade.USDValue != nil {
		sizeUSD = *trade.USDValue
	}

	cfg := w.netevCfg[config.Chain(trade.Chain)]

	rawMove, n, err := w.store.AvgNetReturnForToken(ctx, trade.Chain, *trade.TokenAddress)
	if err != nil {
		return netev.Result{}, nil, err
	}
	if n == 0 {
		rawMove = cfg.DefaultExpectedMove
	}
	expectedMove := netev.ClampExpectedMove(rawMove)

	var slippagePtr *float64
	if s, ok := tr.Components.GetFloat("estimated_slippage"); ok {
		slippagePtr = &s
	}
	slippage := netev.SlippageOrDefault(slippagePtr)

	gasEstimate := netev.GasEstimate{GasCostUSD: cfg.DefaultGasCostUSD, Source: "chain_default"}
	if w.gas != nil && trade.TxHash != "" {
		if est, err := w.gas.Estimate(ctx, trade.Chain, trade.TxHash); err == nil {
			gasEstimate = est
		}
	}

	result := netev.Evaluate(netev.Inputs{
		SizeUSD:      sizeUSD,
		ExpectedMove: expectedMove,
		Slippage:     slippage,
		GasCostUSD:   gasEstimate.GasCostUSD,
		MinUSDProfit: cfg.MinUSDProfit,
		MinROI:       cfg.MinROI,
	})

	gateReasons := store.JSONMap{
		"size_usd":       sizeUSD,
		"expected_move":  expectedMove,
		"slippage":       slippage,
		"gas_cost_usd":   gasEstimate.GasCostUSD,
		"gas_cost_source": gasEstimate.Source,
		"netev_usd":      result.NetEVUSD,
		"netev_roi":      result.NetEVROI,
	}
	return result, gateReasons, nil
}

func (w *Worker) inCooldown(ctx context.Context, chain string, wallet, token *string, alertType string) (bool, error) {
	since := time.Now().UTC().Add(-w.cooldown)
	latest, err := w.store.LatestAlert(ctx, chain, wallet, token, alertType, since)
	if err != nil {
		return false, err
	}
	return latest != nil, nil
}

func (w *Worker) emit(ctx context.Context, alert store.Alert) error {
	narrative := ""
	if w.narrator != nil {
		narrative = w.narrator.NarrateReasons(ctx, alert.Reasons)
	}
	if narrative != "" {
		alert.Narrative = &narrative
	}
	_, err := w.store.InsertAlert(ctx, alert)
	return err
}

func tradeSize(trade store.Trade) float64 {
	if trade.USDValue != nil {
		return *trade.USDValue
	}
	if trade.Amount != nil && trade.Price != nil {
		return *trade.Amount * *trade.Price
	}
	return 0
}

func tradeReasons(trade store.Trade) store.JSONMap {
	r := store.JSONMap{
		"tx_hash":   trade.TxHash,
		"log_index": trade.LogIndex,
	}
	if trade.Side != nil {
		r["side"] = *trade.Side
	}
	if trade.Amount != nil {
		r["amount"] = *trade.Amount
	}
	if trade.Price != nil {
		r["price"] = *trade.Price
	}
	if trade.USDValue != nil {
		r["usd_value"] = *trade.USDValue
	}
	if trade.BlockTime != nil {
		r["block_time"] = trade.BlockTime.UTC().Format(time.RFC3339)
	}
	return r
}

// classifyRegime buckets a conviction score into the coarse label the
// narrator and the ops metrics surface group alerts by.
func classifyRegime(conviction float64) string {
	switch {
	case conviction >= 70:
		return "momentum"
	case conviction >= 40:
		return "neutral"
	default:
		return "chop"
	}
}
