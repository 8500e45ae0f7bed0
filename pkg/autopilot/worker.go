package autopilot

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/titan-signal/titan/pkg/config"
	"github.com/titan-signal/titan/pkg/risk"
	"github.com/titan-signal/titan/pkg/store"
)

const watchPairLifetime = 6 * time.Hour

// Worker runs the discovery sweep and the churn pass.
type Worker struct {
	store  *store.Store
	dex    *risk.DexScreenerClient
	goplus *risk.GoPlusClient
	cfg    config.AutopilotConstants
	log    zerolog.Logger
}

func NewWorker(st *store.Store, dex *risk.DexScreenerClient, goplus *risk.GoPlusClient, cfg config.AutopilotConstants, log zerolog.Logger) *Worker {
	return &Worker{store: st, dex: dex, goplus: goplus, cfg: cfg, log: log.With().Str("worker", "autopilot").Logger()}
}

// RunOnce sweeps DexScreener per chain and upserts surviving pairs,
// then demotes each chain's active autopilot pairs until the chain's
// whole active set fits its cap. A
// fetch failure for one chain aborts the whole cycle — it is never
// swallowed per-chain, matching the original's "abort the cycle"
// behavior on a DexScreener error.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	inserted := 0

	for _, chain := range config.AllChains() {
		pairs, err := w.dex.SearchPairs(ctx, string(chain))
		if err != nil {
			return inserted, fmt.Errorf("autopilot fetch failed for chain %s: %w", chain, err)
		}
		if len(pairs) == 0 {
			return inserted, fmt.Errorf("autopilot: dexscreener returned no pairs for chain %s", chain)
		}
		pairs = FilterPairsForChain(pairs, string(chain))

		n, err := w.ingestChain(ctx, string(chain), pairs, now)
		if err != nil {
			return inserted, err
		}
		inserted += n
	}

	for _, chain := range config.AllChains() {
		if err := w.churnChain(ctx, string(chain), now); err != nil {
			w.log.Warn().Err(err).Str("chain", string(chain)).Msg("autopilot churn failed")
		}
	}

	w.log.Info().Int("inserted", inserted).Msg("autopilot_complete")
	return inserted, nil
}

func (w *Worker) ingestChain(ctx context.Context, chain string, pairs []risk.DexScreenerPair, now time.Time) (int, error) {
	liquidityFloor := ChainLiquidityFloor(chain, w.cfg)
	inserted := 0

	for _, pair := range pairs {
		if !strings.EqualFold(pair.ChainID, chain) {
			continue
		}
		liquidityUSD := pair.Liquidity.USD
		volume24h := pair.Volume.H24
		ageHours := CalculateAgeHours(pair.PairCreatedAt, now)
		if !PassesQualityFilter(liquidityUSD, volume24h, ageHours, w.cfg, liquidityFloor) {
			continue
		}

		pairAddress := NormalizeAddress(pair.PairAddress)
		if pairAddress == "" {
			continue
		}

		token0 := NormalizeAddress(pair.BaseToken.Address)
		token1 := NormalizeAddress(pair.QuoteToken.Address)
		tokenToCheck := token0
		if tokenToCheck == "" {
			tokenToCheck = token1
		}
		if tokenToCheck != "" {
			known, err := w.store.TokenKnown(ctx, chain, tokenToCheck)
			if err == nil && known {
				if w.knownTokenIsCritical(ctx, chain, tokenToCheck) {
					continue
				}
			}
		}

		priority := PriorityScore(liquidityUSD, volume24h)
		wp := store.WatchPair{
			Chain:         chain,
			PairAddress:   pairAddress,
			Dex:           pair.DexID,
			Token0Symbol:  pair.BaseToken.Symbol,
			Token0Address: token0,
			Token1Symbol:  pair.QuoteToken.Symbol,
			Token1Address: token1,
			Source:        "autopilot",
			Priority:      priority,
			ExpiresAt:     now.Add(watchPairLifetime),
			LastSeen:      &now,
		}
		if err := w.store.UpsertWatchPairFromFeed(ctx, wp); err != nil {
			w.log.Warn().Err(err).Str("pair", pairAddress).Msg("watch pair upsert failed")
			continue
		}
		inserted++
	}
	return inserted, nil
}

func (w *Worker) knownTokenIsCritical(ctx context.Context, chain, tokenAddress string) bool {
	result, found, err := w.goplus.TokenSecurity(ctx, chain, tokenAddress)
	if err != nil || !found {
		return false
	}
	return HasCriticalGoPlusFlags(result)
}

// churnChain demotes the lowest-priority active autopilot pairs until
// the chain's whole active set, seed_pack rows included, fits the cap.
// seed_pack rows are never touched, so they count against the cap but
// are never demoted.
func (w *Worker) churnChain(ctx context.Context, chain string, now time.Time) error {
	active, err := w.store.ActiveAutopilotPairsRanked(ctx, chain, now)
	if err != nil {
		return err
	}
	all, err := w.store.ActiveWatchPairs(ctx, chain, now, math.MaxInt32)
	if err != nil {
		return err
	}
	keep := w.cfg.MaxPairsPerChain - (len(all) - len(active))
	if keep < 0 {
		keep = 0
	}
	if len(active) <= keep {
		return nil
	}
	excess := active[keep:]
	for _, pair := range excess {
		if err := w.store.DemotePair(ctx, chain, pair.PairAddress, now); err != nil {
			w.log.Warn().Err(err).Str("pair", pair.PairAddress).Msg("demote failed")
		}
	}
	return nil
}
