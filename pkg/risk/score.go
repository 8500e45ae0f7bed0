package risk

import "github.com/titan-signal/titan/pkg/store"

const (
	lowLiquidityFloorUSD = 10_000.0
	// suggestedSizeLiquidityFraction is the share of a token's deepest
	// pool liquidity offered up as a suggested max trade size: large
	// enough to matter for the exit-feasibility check, conservative
	// enough to not assume a trader can move the whole pool.
	suggestedSizeLiquidityFraction = 0.10
)

// Assessment is the fully composited risk verdict for one token: the
// TSS score, the flags that produced it, and the component map for
// the TokenRisk row.
type Assessment struct {
	Score               float64
	Flags               []string
	Components          store.JSONMap
	MaxSuggestedSizeUSD float64
	LiquidityUSD        float64
	Sellable            bool
	EstimatedSlippage   float64
}

// ComputeTSS implements the formula: start at 100, subtract 30 if
// DexScreener reports no pairs, subtract 15 for each of honeypot,
// blacklisted, proxy, mintable, and low_liquidity (max pair liquidity
// below $10,000), floored at 0.
func ComputeTSS(pairs []DexScreenerPair, goplus GoPlusResult, goplusKnown bool) Assessment {
	score := 100.0
	var flags []string

	if len(pairs) == 0 {
		score -= 30
		flags = append(flags, "no_pairs")
	}

	maxLiquidity := MaxLiquidityUSD(pairs)
	if len(pairs) > 0 && maxLiquidity < lowLiquidityFloorUSD {
		score -= 15
		flags = append(flags, "low_liquidity")
	}

	if goplusKnown {
		if goplus.Honeypot() {
			score -= 15
			flags = append(flags, "honeypot")
		}
		if goplus.Blacklisted() {
			score -= 15
			flags = append(flags, "blacklisted")
		}
		if goplus.Proxy() {
			score -= 15
			flags = append(flags, "proxy")
		}
		if goplus.Mintable() {
			score -= 15
			flags = append(flags, "mintable")
		}
	}

	if score < 0 {
		score = 0
	}

	sellable := !(goplusKnown && goplus.IsCritical()) && !containsFlag(flags, "low_liquidity")
	maxSuggestedSize := maxLiquidity * suggestedSizeLiquidityFraction
	estimatedSlippage := EstimateExitSlippage(maxSuggestedSize, maxLiquidity)

	components := store.JSONMap{
		"tss": store.JSONMap{
			"dexscreener": store.JSONMap{
				"pair_count":        len(pairs),
				"max_liquidity_usd": maxLiquidity,
			},
			"goplus": store.JSONMap{
				"known":       goplusKnown,
				"honeypot":    goplusKnown && goplus.Honeypot(),
				"blacklisted": goplusKnown && goplus.Blacklisted(),
				"proxy":       goplusKnown && goplus.Proxy(),
				"mintable":    goplusKnown && goplus.Mintable(),
			},
		},
		"max_suggested_size_usd": maxSuggestedSize,
		"liquidity_usd":          maxLiquidity,
		"sellable":               sellable,
		"estimated_slippage":     estimatedSlippage,
	}

	return Assessment{
		Score: score, Flags: flags, Components: components,
		MaxSuggestedSizeUSD: maxSuggestedSize, LiquidityUSD: maxLiquidity, Sellable: sellable,
		EstimatedSlippage: estimatedSlippage,
	}
}

const (
	defaultExitSlippage = 0.02
	minExitSlippage     = 0.0025
	maxExitSlippage     = 0.40
)

// EstimateExitSlippage derives a 1k-unit exit slippage estimate from
// whichever size basis is available, clamped to a sane band. This is
// the same derivation the Outcomes worker falls back to when a risk
// snapshot has no direct exit_slippage_1k figure — kept in one place
// so the Alerts worker's NetEV gate and the Outcomes worker agree.
func EstimateExitSlippage(maxSuggestedSizeUSD, liquidityUSD float64) float64 {
	basis := maxSuggestedSizeUSD
	if basis <= 0 {
		basis = liquidityUSD * suggestedSizeLiquidityFraction * 0.2
	}
	if basis <= 0 {
		return defaultExitSlippage
	}
	slippage := defaultExitSlippage * 1000 / basis
	if slippage < minExitSlippage {
		return minExitSlippage
	}
	if slippage > maxExitSlippage {
		return maxExitSlippage
	}
	return slippage
}

func containsFlag(flags []string, target string) bool {
	for _, f := range flags {
		if f == target {
			return true
		}
	}
	return false
}

// Degraded is the TokenRisk written when both external sources fail:
// a score of 0 is the only call the Risk worker can make without data,
// and the sentinel flag tells every downstream reader why. A degraded
// token is treated as unsellable — there is no basis to suggest a size.
func Degraded() Assessment {
	return Assessment{
		Score: 0,
		Flags: []string{"data_unavailable"},
		Components: store.JSONMap{
			"tss":                    store.JSONMap{"error": "data_unavailable"},
			"max_suggested_size_usd": 0.0,
			"liquidity_usd":          0.0,
			"sellable":               false,
			"estimated_slippage":     defaultExitSlippage,
		},
		Sellable:          false,
		EstimatedSlippage: defaultExitSlippage,
	}
}
