package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/titan-signal/titan/pkg/store"
)

func ptr[T any](v T) *T { return &v }

func TestApplyTradeBuyThenSell(t *testing.T) {
	pos := &PositionState{}
	ApplyTrade(pos, store.Trade{Side: ptr("buy"), Amount: ptr(10.0), Price: ptr(2.0)})
	assert.Equal(t, 10.0, pos.Quantity)
	assert.Equal(t, 2.0, *pos.AveragePrice)

	ApplyTrade(pos, store.Trade{Side: ptr("buy"), Amount: ptr(10.0), Price: ptr(4.0)})
	assert.Equal(t, 20.0, pos.Quantity)
	assert.InDelta(t, 3.0, *pos.AveragePrice, 1e-9)

	ApplyTrade(pos, store.Trade{Side: ptr("sell"), Amount: ptr(5.0)})
	assert.Equal(t, 15.0, pos.Quantity)
	assert.InDelta(t, 3.0, *pos.AveragePrice, 1e-9)
}

func TestApplyTradeSellClearsAverageAtZero(t *testing.T) {
	pos := &PositionState{Quantity: 5, AveragePrice: ptr(2.0)}
	ApplyTrade(pos, store.Trade{Side: ptr("sell"), Amount: ptr(5.0)})
	assert.Zero(t, pos.Quantity)
	assert.Nil(t, pos.AveragePrice)
}

func TestApplyTradeSellOverQuantityClamps(t *testing.T) {
	pos := &PositionState{Quantity: 5, AveragePrice: ptr(2.0)}
	ApplyTrade(pos, store.Trade{Side: ptr("sell"), Amount: ptr(100.0)})
	assert.Zero(t, pos.Quantity)
	assert.Nil(t, pos.AveragePrice)
}

func TestApplyTradeSkipsSellOnEmptyPosition(t *testing.T) {
	pos := &PositionState{}
	ApplyTrade(pos, store.Trade{Side: ptr("sell"), Amount: ptr(5.0)})
	assert.Zero(t, pos.Quantity)
}

func TestApplyTradeSkipsBuyWithNoPrice(t *testing.T) {
	pos := &PositionState{}
	ApplyTrade(pos, store.Trade{Side: ptr("buy"), Amount: ptr(5.0)})
	assert.Zero(t, pos.Quantity)
}

func TestEffectivePriceFallsBackToUSDValue(t *testing.T) {
	price, ok := EffectivePrice(store.Trade{Amount: ptr(2.0), USDValue: ptr(10.0)})
	assert.True(t, ok)
	assert.Equal(t, 5.0, price)
}

func TestEffectivePricePrefersExplicitPrice(t *testing.T) {
	price, ok := EffectivePrice(store.Trade{Price: ptr(9.0), Amount: ptr(2.0), USDValue: ptr(10.0)})
	assert.True(t, ok)
	assert.Equal(t, 9.0, price)
}

func TestSortTradesOrdersByBlockTimeThenCreatedAtThenTxThenLogIndex(t *testing.T) {
	now := time.Now().UTC()
	trades := []store.Trade{
		{TxHash: "b", LogIndex: 1, CreatedAt: now},
		{TxHash: "a", LogIndex: 0, BlockTime: ptr(now.Add(-time.Hour))},
		{TxHash: "c", LogIndex: 0, CreatedAt: now.Add(-time.Minute)},
	}
	SortTrades(trades)
	assert.Equal(t, "a", trades[0].TxHash)
	assert.Equal(t, "c", trades[1].TxHash)
	assert.Equal(t, "b", trades[2].TxHash)
}

func TestTierForValue(t *testing.T) {
	assert.Equal(t, "ocean", TierForValue(1_500_000, 1e6, 1e5, 1e4))
	assert.Equal(t, "shadow", TierForValue(200_000, 1e6, 1e5, 1e4))
	assert.Equal(t, "titan", TierForValue(50_000, 1e6, 1e5, 1e4))
	assert.Equal(t, "ignore", TierForValue(100, 1e6, 1e5, 1e4))
}

func TestFoldTradesSkipsUnattributedTrades(t *testing.T) {
	trades := []store.Trade{
		{Chain: "ethereum", WalletAddress: ptr("0xw"), TokenAddress: nil, Side: ptr("buy"), Amount: ptr(1.0), Price: ptr(1.0)},
		{Chain: "ethereum", WalletAddress: nil, TokenAddress: ptr("0xt"), Side: ptr("buy"), Amount: ptr(1.0), Price: ptr(1.0)},
		{Chain: "ethereum", WalletAddress: ptr("0xw"), TokenAddress: ptr("0xt"), Side: ptr("buy"), Amount: ptr(2.0), Price: ptr(3.0)},
	}
	byWallet := FoldTrades(trades)
	assert.Len(t, byWallet, 1)
	positions := byWallet[WalletKey{Chain: "ethereum", Address: "0xw"}]
	assert.Equal(t, 2.0, positions["0xt"].Quantity)
	assert.InDelta(t, 6.0, TotalValue(positions), 1e-9)
}
