package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/titan-signal/titan/pkg/store"
)

func TestClassifyRegime(t *testing.T) {
	assert.Equal(t, "momentum", classifyRegime(70))
	assert.Equal(t, "momentum", classifyRegime(95))
	assert.Equal(t, "neutral", classifyRegime(40))
	assert.Equal(t, "neutral", classifyRegime(55))
	assert.Equal(t, "chop", classifyRegime(39.9))
	assert.Equal(t, "chop", classifyRegime(0))
}

func TestTradeSizePrefersUSDValue(t *testing.T) {
	usd := 250.0
	amount, price := 10.0, 2.0
	trade := store.Trade{USDValue: &usd, Amount: &amount, Price: &price}
	assert.Equal(t, 250.0, tradeSize(trade))
}

func TestTradeSizeFallsBackToAmountTimesPrice(t *testing.T) {
	amount, price := 10.0, 2.5
	trade := store.Trade{Amount: &amount, Price: &price}
	assert.Equal(t, 25.0, tradeSize(trade))
}

func TestTradeSizeZeroWhenNothingKnown(t *testing.T) {
	assert.Equal(t, 0.0, tradeSize(store.Trade{}))
}

func TestTradeReasonsIncludesKnownFields(t *testing.T) {
	side := "buy"
	amount, price, usd := 1.5, 3.0, 4.5
	blockTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	trade := store.Trade{
		TxHash: "0xabc", LogIndex: 3, Side: &side, Amount: &amount,
		Price: &price, USDValue: &usd, BlockTime: &blockTime,
	}
	r := tradeReasons(trade)
	assert.Equal(t, "0xabc", r["tx_hash"])
	assert.Equal(t, 3, r["log_index"])
	assert.Equal(t, "buy", r["side"])
	assert.Equal(t, 1.5, r["amount"])
	assert.Equal(t, 3.0, r["price"])
	assert.Equal(t, 4.5, r["usd_value"])
	assert.Equal(t, "2026-01-01T00:00:00Z", r["block_time"])
}

func TestTradeReasonsOmitsMissingOptionalFields(t *testing.T) {
	trade := store.Trade{TxHash: "0xdef", LogIndex: 0}
	r := tradeReasons(trade)
	_, hasSide := r["side"]
	_, hasPrice := r["price"]
	assert.False(t, hasSide)
	assert.False(t, hasPrice)
}
