package config

import (
	"os"
	"testing"
)

func TestEnvOrUsesFallbackWhenUnset(t *testing.T) {
	os.Unsetenv("TITAN_TEST_ENVOR")
	if got := envOr("TITAN_TEST_ENVOR", "fallback"); got != "fallback" {
		t.Fatalf("got %q, want fallback", got)
	}
}

func TestEnvOrUsesSetValue(t *testing.T) {
	os.Setenv("TITAN_TEST_ENVOR", "set")
	defer os.Unsetenv("TITAN_TEST_ENVOR")
	if got := envOr("TITAN_TEST_ENVOR", "fallback"); got != "set" {
		t.Fatalf("got %q, want set", got)
	}
}

func TestEnvIntFallsBackOnGarbage(t *testing.T) {
	os.Setenv("TITAN_TEST_ENVINT", "not-a-number")
	defer os.Unsetenv("TITAN_TEST_ENVINT")
	if got := envInt("TITAN_TEST_ENVINT", 7); got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestEnvFloatParsesValue(t *testing.T) {
	os.Setenv("TITAN_TEST_ENVFLOAT", "0.25")
	defer os.Unsetenv("TITAN_TEST_ENVFLOAT")
	if got := envFloat("TITAN_TEST_ENVFLOAT", 1); got != 0.25 {
		t.Fatalf("got %v, want 0.25", got)
	}
}

func TestSplitTrimLowercasesAndDropsEmpty(t *testing.T) {
	got := splitTrim("0xAAA, 0xBBB ,, 0xCCC")
	want := []string{"0xaaa", "0xbbb", "0xccc"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSplitTrimOrJSONAcceptsJSONList(t *testing.T) {
	got := splitTrimOrJSON(`["0xAAA", "0xBBB"]`)
	want := []string{"0xaaa", "0xbbb"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSplitTrimOrJSONFallsBackToCommaList(t *testing.T) {
	got := splitTrimOrJSON("0xAAA,0xBBB")
	if len(got) != 2 || got[0] != "0xaaa" || got[1] != "0xbbb" {
		t.Fatalf("got %v", got)
	}
}

func TestSplitTrimOrJSONEmptyReturnsNil(t *testing.T) {
	if got := splitTrimOrJSON(""); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestValidateRequiresEveryChainConfigured(t *testing.T) {
	cfg := &Config{ChainConfig: map[Chain]ChainConfig{
		ChainEthereum: {RPCHTTP: "http://eth"},
	}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing bsc config")
	}
}

func TestValidateRejectsChainWithNeitherRPC(t *testing.T) {
	cfg := &Config{ChainConfig: map[Chain]ChainConfig{
		ChainEthereum: {},
		ChainBSC:      {RPCHTTP: "http://bsc"},
	}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for chain with no rpc endpoints")
	}
}

func TestValidatePassesWhenEveryChainHasAnEndpoint(t *testing.T) {
	cfg := &Config{ChainConfig: map[Chain]ChainConfig{
		ChainEthereum: {RPCWS: "ws://eth"},
		ChainBSC:      {RPCHTTP: "http://bsc"},
	}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
