// Package dexregistry maps known pool/pair contracts to their DEX and
// decode strategy, the built-in registry the Decoder consults before
// attempting to decode a swap log, carried forward from the seed
// registry of three known addresses in the original implementation.
package dexregistry

import "strings"

const (
	DexUniswapV2    = "uniswap_v2"
	DexUniswapV3    = "uniswap_v3"
	DexPancakeswapV2 = "pancakeswap_v2"

	StrategyV2Pair = "v2_pair"
	StrategyV3Pool = "v3_pool"
)

type Entry struct {
	Dex      string
	Strategy string
}

type key struct {
	chain, address string
}

var seedRegistry = map[key]Entry{
	{"ethereum", "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc"}: {DexUniswapV2, StrategyV2Pair},
	{"ethereum", "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640"}: {DexUniswapV3, StrategyV3Pool},
	{"bsc", "0x16b9a828a7d7c2f6ec0f3b7e6754a672032b337d"}:      {DexPancakeswapV2, StrategyV2Pair},
}

// Registry is the mutable lookup table a Decoder instance consults. It
// starts from the seed set; further entries are added only through
// Learn. The decode command builds it from the seed set alone and does
// not feed it WatchPair rows.
type Registry struct {
	entries map[key]Entry
}

func New() *Registry {
	r := &Registry{entries: make(map[key]Entry, len(seedRegistry))}
	for k, v := range seedRegistry {
		r.entries[k] = v
	}
	return r
}

func (r *Registry) Lookup(chain, address string) (Entry, bool) {
	if address == "" {
		return Entry{}, false
	}
	e, ok := r.entries[key{strings.ToLower(chain), strings.ToLower(address)}]
	return e, ok
}

// Learn registers a pool discovered outside the seed set (e.g. a
// WatchPair the Autopilot ingested whose `dex` field names a known
// venue). uniswap_v3 maps to the v3_pool strategy; every other dex name
// maps to v2_pair.
func (r *Registry) Learn(chain, address, dex string) {
	if address == "" || dex == "" {
		return
	}
	strategy := StrategyV2Pair
	if dex == DexUniswapV3 {
		strategy = StrategyV3Pool
	}
	r.entries[key{strings.ToLower(chain), strings.ToLower(address)}] = Entry{Dex: dex, Strategy: strategy}
}
