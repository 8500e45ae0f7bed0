// Package profiler recomputes every wallet's positions and total
// value from the full trade history each cycle, tiers the wallet, and
// raises a wallet_tier alert on change.
package profiler

import (
	"sort"
	"strings"
	"time"

	"github.com/titan-signal/titan/pkg/store"
)

// PositionState is the in-memory fold target for one (wallet, token)
// pair across the full trade history.
type PositionState struct {
	Quantity     float64
	AveragePrice *float64
}

func normalizeSide(side *string) string {
	if side == nil {
		return ""
	}
	v := strings.ToLower(strings.TrimSpace(*side))
	if v == "buy" || v == "sell" {
		return v
	}
	return ""
}

// EffectivePrice prefers the trade's recorded price, falling back to
// usd_value/amount when both are present and amount is non-zero.
func EffectivePrice(t store.Trade) (float64, bool) {
	if t.Price != nil {
		return *t.Price, true
	}
	if t.Amount != nil && t.USDValue != nil && *t.Amount != 0 {
		return *t.USDValue / *t.Amount, true
	}
	return 0, false
}

// ApplyTrade folds one trade into a position. A buy with no resolvable
// price, or a sell against a non-positive position, is skipped
// entirely rather than producing a nonsensical average.
func ApplyTrade(pos *PositionState, t store.Trade) {
	side := normalizeSide(t.Side)
	if side == "" || t.Amount == nil {
		return
	}
	amount := *t.Amount

	switch side {
	case "buy":
		price, ok := EffectivePrice(t)
		if !ok {
			return
		}
		avg := 0.0
		if pos.AveragePrice != nil {
			avg = *pos.AveragePrice
		}
		totalCost := avg*pos.Quantity + amount*price
		pos.Quantity += amount
		if pos.Quantity > 0 {
			newAvg := totalCost / pos.Quantity
			pos.AveragePrice = &newAvg
		} else {
			pos.AveragePrice = nil
		}
	case "sell":
		if pos.Quantity <= 0 {
			return
		}
		sellQty := pos.Quantity
		if amount < sellQty {
			sellQty = amount
		}
		pos.Quantity -= sellQty
		if pos.Quantity <= 0 {
			pos.Quantity = 0
			pos.AveragePrice = nil
		}
	}
}

// SortTrades orders trades by (block_time, created_at, tx_hash,
// log_index), the fold order every downstream average depends on.
func SortTrades(trades []store.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i], trades[j]
		at := sortBlockTime(a)
		bt := sortBlockTime(b)
		if !at.Equal(bt) {
			return at.Before(bt)
		}
		ac, bc := sortCreatedAt(a), sortCreatedAt(b)
		if !ac.Equal(bc) {
			return ac.Before(bc)
		}
		if a.TxHash != b.TxHash {
			return a.TxHash < b.TxHash
		}
		return a.LogIndex < b.LogIndex
	})
}

func sortBlockTime(t store.Trade) time.Time {
	if t.BlockTime != nil {
		return *t.BlockTime
	}
	return sortCreatedAt(t)
}

func sortCreatedAt(t store.Trade) time.Time {
	if !t.CreatedAt.IsZero() {
		return t.CreatedAt
	}
	return time.Time{}
}

// TierForValue implements the §4.4 thresholds: ocean >= 1e6, shadow >=
// 1e5, titan >= 1e4, else ignore.
func TierForValue(totalValue, ocean, shadow, titan float64) string {
	switch {
	case totalValue >= ocean:
		return "ocean"
	case totalValue >= shadow:
		return "shadow"
	case totalValue >= titan:
		return "titan"
	default:
		return "ignore"
	}
}

// WalletKey identifies the fold bucket for one wallet's positions.
type WalletKey struct {
	Chain   string
	Address string
}

// FoldTrades groups wallet-attributed, token-attributed trades into
// per-wallet position maps, in sorted fold order.
func FoldTrades(trades []store.Trade) map[WalletKey]map[string]*PositionState {
	sorted := make([]store.Trade, len(trades))
	copy(sorted, trades)
	SortTrades(sorted)

	out := make(map[WalletKey]map[string]*PositionState)
	for _, t := range sorted {
		if t.WalletAddress == nil || t.TokenAddress == nil {
			continue
		}
		key := WalletKey{Chain: t.Chain, Address: *t.WalletAddress}
		positions, ok := out[key]
		if !ok {
			positions = make(map[string]*PositionState)
			out[key] = positions
		}
		pos, ok := positions[*t.TokenAddress]
		if !ok {
			pos = &PositionState{}
			positions[*t.TokenAddress] = pos
		}
		ApplyTrade(pos, t)
	}
	return out
}

// TotalValue sums quantity*average_price across a wallet's positions.
func TotalValue(positions map[string]*PositionState) float64 {
	var total float64
	for _, p := range positions {
		if p.AveragePrice != nil {
			total += p.Quantity * *p.AveragePrice
		}
	}
	return total
}
