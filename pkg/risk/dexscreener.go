package risk

import (
	"context"
	"fmt"

	"github.com/titan-signal/titan/pkg/httpx"
)

// DexScreenerPair is the subset of a DexScreener pairs-endpoint entry
// the TSS formula and the outcome evaluator's price augmentation need.
type DexScreenerPair struct {
	ChainID       string  `json:"chainId"`
	PairAddress   string  `json:"pairAddress"`
	DexID         string  `json:"dexId"`
	PriceUSD      string  `json:"priceUsd"`
	PairCreatedAt float64 `json:"pairCreatedAt"`
	Liquidity     struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"quoteToken"`
}

type dexScreenerResponse struct {
	Pairs []DexScreenerPair `json:"pairs"`
}

// DexScreenerClient wraps the tokens and search endpoints behind a
// shared retrying/breaker-guarded HTTP client.
type DexScreenerClient struct {
	http    *httpx.Client
	baseURL string
}

func NewDexScreenerClient(http *httpx.Client, baseURL string) *DexScreenerClient {
	return &DexScreenerClient{http: http, baseURL: baseURL}
}

// TokenPairs fetches every known pair for a token address.
func (c *DexScreenerClient) TokenPairs(ctx context.Context, tokenAddress string) ([]DexScreenerPair, error) {
	var resp dexScreenerResponse
	url := fmt.Sprintf("%s/tokens/%s", c.baseURL, tokenAddress)
	if err := c.http.GetJSON(ctx, url, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// SearchPairs backs the Autopilot's per-chain discovery sweep.
func (c *DexScreenerClient) SearchPairs(ctx context.Context, query string) ([]DexScreenerPair, error) {
	var resp dexScreenerResponse
	url := fmt.Sprintf("%s/search", c.baseURL)
	if err := c.http.GetJSON(ctx, url, map[string]string{"q": query}, &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// MaxLiquidityUSD returns the highest liquidity.usd across pairs, 0 if
// there are none.
func MaxLiquidityUSD(pairs []DexScreenerPair) float64 {
	max := 0.0
	for _, p := range pairs {
		if p.Liquidity.USD > max {
			max = p.Liquidity.USD
		}
	}
	return max
}

// SumVolume24h sums volume.h24 across pairs.
func SumVolume24h(pairs []DexScreenerPair) float64 {
	var sum float64
	for _, p := range pairs {
		sum += p.Volume.H24
	}
	return sum
}
