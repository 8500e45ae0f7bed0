// Package netev estimates per-trade gas cost and applies the Alerts
// worker's net expected value gate.
package netev

import (
	"context"
	"math/big"
	"time"

	"github.com/titan-signal/titan/pkg/chainrpc"
	"github.com/titan-signal/titan/pkg/httpx"
	"github.com/titan-signal/titan/pkg/store"
)

// GasEstimate is the per-trade gas cost plus the provenance of where
// it came from, matching the three-tier source priority.
type GasEstimate struct {
	GasCostUSD  float64
	Source      string // receipt_actual | rolling_p95_1h | chain_default
	AvgGasUSD1h *float64
	P95GasUSD1h *float64
}

type nativePriceFetcher interface {
	NativePriceUSD(ctx context.Context, chain string) (float64, bool, error)
}

// CoinGeckoPriceFetcher resolves a chain's native token price in USD
// via CoinGecko's simple price endpoint.
type CoinGeckoPriceFetcher struct {
	http    *httpx.Client
	baseURL string
}

var nativeCoinIDs = map[string]string{
	"ethereum": "ethereum",
	"bsc":      "binancecoin",
}

func NewCoinGeckoPriceFetcher(http *httpx.Client, baseURL string) *CoinGeckoPriceFetcher {
	return &CoinGeckoPriceFetcher{http: http, baseURL: baseURL}
}

func (f *CoinGeckoPriceFetcher) NativePriceUSD(ctx context.Context, chain string) (float64, bool, error) {
	coin, ok := nativeCoinIDs[chain]
	if !ok {
		return 0, false, nil
	}
	var resp map[string]map[string]float64
	err := f.http.GetJSON(ctx, f.baseURL+"/simple/price", map[string]string{
		"ids": coin, "vs_currencies": "usd",
	}, &resp)
	if err != nil {
		return 0, false, err
	}
	usd, ok := resp[coin]["usd"]
	return usd, ok, nil
}

// GasCostEstimator wires the three-source priority: a tx receipt's
// actual gas, then the chain's rolling 1h p95, then a fixed default.
type GasCostEstimator struct {
	store   *store.Store
	clients map[string]*chainrpc.Client
	prices  nativePriceFetcher
	chainDefault func(chain string) float64
}

func NewGasCostEstimator(st *store.Store, clients map[string]*chainrpc.Client, prices nativePriceFetcher, chainDefault func(string) float64) *GasCostEstimator {
	return &GasCostEstimator{store: st, clients: clients, prices: prices, chainDefault: chainDefault}
}

// Estimate resolves gas cost for one trade, recording an observation
// and refreshing the chain's rolling estimate whenever a receipt
// lookup succeeds.
func (e *GasCostEstimator) Estimate(ctx context.Context, chain, txHash string) (GasEstimate, error) {
	rolling, _ := e.store.GetChainGasEstimate(ctx, chain)

	if client, ok := e.clients[chain]; ok {
		if receipt, err := client.TransactionReceipt(ctx, txHash); err == nil && receipt != nil {
			if nativePrice, known, err := e.prices.NativePriceUSD(ctx, chain); err == nil && known {
				gasCostUSD := weiGasCostToUSD(receipt.GasUsed, receipt.EffectiveGasPrice, nativePrice)
				_ = e.store.RecordGasObservation(ctx, store.GasCostObservation{
					Chain: chain, TxHash: txHash, GasUsed: int64(receipt.GasUsed),
					EffectiveGasPriceWei: bigToFloat(receipt.EffectiveGasPrice),
					NativePriceUSD:       nativePrice, GasCostUSD: gasCostUSD,
					ObservedAt: time.Now().UTC(),
				})
				refreshed, err := RefreshChainEstimate(ctx, e.store, chain)
				est := GasEstimate{GasCostUSD: gasCostUSD, Source: "receipt_actual"}
				if err == nil && refreshed != nil {
					est.AvgGasUSD1h = &refreshed.AvgGasUSD1h
					est.P95GasUSD1h = &refreshed.P95GasUSD1h
				}
				return est, nil
			}
		}
	}

	if rolling != nil && rolling.P95GasUSD1h > 0 {
		avg := rolling.AvgGasUSD1h
		p95 := rolling.P95GasUSD1h
		return GasEstimate{GasCostUSD: p95, Source: "rolling_p95_1h", AvgGasUSD1h: &avg, P95GasUSD1h: &p95}, nil
	}

	return GasEstimate{GasCostUSD: e.chainDefault(chain), Source: "chain_default"}, nil
}

func weiGasCostToUSD(gasUsed uint64, gasPriceWei *big.Int, nativePriceUSD float64) float64 {
	if gasPriceWei == nil {
		return 0
	}
	cost := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), gasPriceWei)
	gasNative, _ := new(big.Float).Quo(new(big.Float).SetInt(cost), big.NewFloat(1e18)).Float64()
	return gasNative * nativePriceUSD
}

func bigToFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// RefreshChainEstimate recomputes a chain's rolling 1h avg/p95 gas
// cost from observations in the last hour.
func RefreshChainEstimate(ctx context.Context, st *store.Store, chain string) (*store.ChainGasEstimate, error) {
	samples, err := st.GasObservationsLastHour(ctx, chain, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}
	avg, p95 := AvgAndP95(samples)
	estimate := store.ChainGasEstimate{Chain: chain, AvgGasUSD1h: avg, P95GasUSD1h: p95, SampleCount: len(samples)}
	if err := st.UpsertChainGasEstimate(ctx, estimate); err != nil {
		return nil, err
	}
	return &estimate, nil
}

// AvgAndP95 computes the mean and the inclusive-method 95th percentile
// of a sample set, matching the statistics.quantiles(n=100,
// method="inclusive")[94] computation.
func AvgAndP95(values []float64) (avg, p95 float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg = sum / float64(len(values))

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sortFloats(sorted)
	if len(sorted) == 1 {
		return avg, sorted[0]
	}
	p95 = inclusivePercentile(sorted, 95)
	return avg, p95
}

func sortFloats(v []float64) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
}

// inclusivePercentile mirrors Python's statistics.quantiles(method="inclusive")
// for n=100 buckets, indexed [pct-1]: position = pct/100 * (len-1).
func inclusivePercentile(sorted []float64, pct float64) float64 {
	n := len(sorted)
	pos := (pct / 100.0) * float64(n-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
