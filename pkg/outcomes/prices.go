package outcomes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/titan-signal/titan/pkg/risk"
	"github.com/titan-signal/titan/pkg/store"
	"github.com/titan-signal/titan/pkg/streambus"
)

const dexCacheTTL = 120 * time.Second

// PriceSeries builds the combined price series for a token (optionally
// narrowed to a pair) inside a window: decoded trades first, padded
// out with a cached DexScreener lookup anchored at the window end when
// fewer than two points are available. Reports whether the combined
// series is still insufficient (<2 points).
func PriceSeries(ctx context.Context, st *store.Store, bus *streambus.Bus, dex *risk.DexScreenerClient,
	chain, tokenAddress string, pairAddress *string, start, end time.Time) ([]PricePoint, bool, error) {

	trades, err := st.TradesInWindow(ctx, chain, tokenAddress, pairAddress, start, end)
	if err != nil {
		return nil, true, err
	}

	prices := make([]PricePoint, 0, len(trades))
	for _, t := range trades {
		if t.Price == nil || t.BlockTime == nil {
			continue
		}
		prices = append(prices, PricePoint{Time: *t.BlockTime, Price: *t.Price})
	}

	if len(prices) < 2 {
		dexPrices, err := cachedDexPrices(ctx, bus, dex, tokenAddress, end)
		if err == nil {
			prices = append(prices, dexPrices...)
		}
	}

	return prices, len(prices) < 2, nil
}

// cachedDexPrices fetches every pair's priceUsd for a token from
// DexScreener, all timestamped at anchor (the evaluation window's
// end), caching the raw lookup per token for 120s so repeated horizon
// evaluations in one cycle don't refetch.
func cachedDexPrices(ctx context.Context, bus *streambus.Bus, dex *risk.DexScreenerClient, tokenAddress string, anchor time.Time) ([]PricePoint, error) {
	key := fmt.Sprintf("outcomes:dexscreener:%s", tokenAddress)
	var cached []risk.DexScreenerPair
	if ok, _ := bus.CacheGetJSON(ctx, key, &cached); !ok {
		pairs, err := dex.TokenPairs(ctx, tokenAddress)
		if err != nil {
			return nil, err
		}
		cached = pairs
		_ = bus.CacheSetJSON(ctx, key, cached, dexCacheTTL)
	}

	out := make([]PricePoint, 0, len(cached))
	for _, p := range cached {
		price, err := strconv.ParseFloat(p.PriceUSD, 64)
		if err != nil || price <= 0 {
			continue
		}
		out = append(out, PricePoint{Time: anchor, Price: price})
	}
	return out, nil
}
