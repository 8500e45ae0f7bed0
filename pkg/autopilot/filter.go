// Package autopilot discovers new DEX pairs worth watching without a
// human seeding the watchlist by hand: a periodic DexScreener sweep,
// quality-filtered and GoPlus-screened, feeding the same WatchPair
// table the seed pack populates, with churn control keeping the
// active set bounded per chain.
package autopilot

import (
	"math"
	"strings"
	"time"

	"github.com/titan-signal/titan/pkg/config"
	"github.com/titan-signal/titan/pkg/risk"
)

// CalculateAgeHours derives a pair's age from its pairCreatedAt epoch
// timestamp (accepting seconds or milliseconds); nil when the field is
// absent or unparseable.
func CalculateAgeHours(pairCreatedAt float64, now time.Time) *float64 {
	if pairCreatedAt <= 0 {
		return nil
	}
	var createdTS float64
	switch {
	case pairCreatedAt > 1_000_000_000_000:
		createdTS = pairCreatedAt / 1000.0
	case pairCreatedAt > 1_000_000_000:
		createdTS = pairCreatedAt
	default:
		return nil
	}
	created := time.Unix(int64(createdTS), 0).UTC()
	hours := now.Sub(created).Seconds() / 3600.0
	if hours < 0 {
		hours = 0
	}
	return &hours
}

// PriorityScore is floor(min(10000, liquidity/1000 + volume/500)).
func PriorityScore(liquidityUSD, volume24h float64) int {
	v := math.Min(10_000, liquidityUSD/1000.0+volume24h/500.0)
	return int(math.Floor(v))
}

// ChainLiquidityFloor picks the per-chain liquidity floor.
func ChainLiquidityFloor(chain string, cfg config.AutopilotConstants) float64 {
	if chain == string(config.ChainBSC) {
		return cfg.LiquidityFloorBSC
	}
	return cfg.LiquidityFloorETH
}

// PassesQualityFilter implements the liquidity/volume/age screen: both
// floors must clear outright, or — when age is unknown — both floors
// times the fallback multiplier must clear instead of the plain floor
// and an explicit minimum age check.
func PassesQualityFilter(liquidityUSD, volume24h float64, ageHours *float64, cfg config.AutopilotConstants, liquidityFloor float64) bool {
	if liquidityUSD < liquidityFloor || volume24h < cfg.VolumeFloor24h {
		return false
	}
	if ageHours == nil {
		return liquidityUSD >= liquidityFloor*cfg.AgeFallbackMultiplier &&
			volume24h >= cfg.VolumeFloor24h*cfg.AgeFallbackMultiplier
	}
	return *ageHours >= cfg.MinAgeHours
}

// NormalizeAddress lower-cases a pair/token address, or returns "" for
// an empty input.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// HasCriticalGoPlusFlags is the Autopilot's narrower disqualifier than
// the Risk worker's: only honeypot/blacklisted block a new watch,
// matching the original's CRITICAL_GOPLUS_FLAGS set.
func HasCriticalGoPlusFlags(r risk.GoPlusResult) bool {
	return r.Honeypot() || r.Blacklisted()
}

// FilterPairsForChain keeps only pairs tagged for the given chain,
// falling back to the full set when DexScreener's search endpoint
// returned nothing tagged for it (the original's "chain_pairs or
// pairs" fallback, since /search is a best-effort text query, not a
// chain-scoped endpoint).
func FilterPairsForChain(pairs []risk.DexScreenerPair, chain string) []risk.DexScreenerPair {
	var matched []risk.DexScreenerPair
	for _, p := range pairs {
		if strings.EqualFold(p.ChainID, chain) {
			matched = append(matched, p)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return pairs
}
