package dexregistry

import "testing"

func TestLookupFindsSeedEntryCaseInsensitive(t *testing.T) {
	r := New()
	entry, ok := r.Lookup("Ethereum", "0xB4E16D0168E52D35CACD2C6185B44281EC28C9DC")
	if !ok {
		t.Fatal("expected seed entry to be found")
	}
	if entry.Dex != DexUniswapV2 || entry.Strategy != StrategyV2Pair {
		t.Fatalf("got %+v", entry)
	}
}

func TestLookupMissesUnknownAddress(t *testing.T) {
	r := New()
	if _, ok := r.Lookup("ethereum", "0xdeadbeef"); ok {
		t.Fatal("expected no match")
	}
}

func TestLookupEmptyAddressNeverMatches(t *testing.T) {
	r := New()
	if _, ok := r.Lookup("ethereum", ""); ok {
		t.Fatal("expected no match for empty address")
	}
}

func TestLearnRegistersV3StrategyForUniswapV3(t *testing.T) {
	r := New()
	r.Learn("ethereum", "0xNEWPOOL", DexUniswapV3)
	entry, ok := r.Lookup("ethereum", "0xNEWPOOL")
	if !ok {
		t.Fatal("expected learned entry to be found")
	}
	if entry.Strategy != StrategyV3Pool {
		t.Fatalf("got strategy %q, want %q", entry.Strategy, StrategyV3Pool)
	}
}

func TestLearnDefaultsToV2PairForOtherDexes(t *testing.T) {
	r := New()
	r.Learn("bsc", "0xNEWPAIR", DexPancakeswapV2)
	entry, ok := r.Lookup("bsc", "0xNEWPAIR")
	if !ok {
		t.Fatal("expected learned entry to be found")
	}
	if entry.Strategy != StrategyV2Pair {
		t.Fatalf("got strategy %q, want %q", entry.Strategy, StrategyV2Pair)
	}
}

func TestLearnIgnoresEmptyAddressOrDex(t *testing.T) {
	r := New()
	r.Learn("ethereum", "", DexUniswapV2)
	r.Learn("ethereum", "0xSOMETHING", "")
	if _, ok := r.Lookup("ethereum", "0xSOMETHING"); ok {
		t.Fatal("expected no entry registered with empty dex")
	}
}
