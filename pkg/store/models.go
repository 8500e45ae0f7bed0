// Package store is titan's Postgres system of record. It follows the
// teacher's "Store struct + one method per query, defensive reads,
// upsert via ON CONFLICT" shape, rebuilt on pgx/v5 against the schema
// in the specification's data model section.
package store

import (
	"encoding/json"
	"time"
)

// Wallet is (chain, address): provenance, merit, and tier.
type Wallet struct {
	Chain        string
	Address      string
	Source       string // autopilot | seed_pack | manual
	PriorWeight  float64
	MeritScore   float64
	Tier         *string // ocean | shadow | titan | ignore | nil
	TierReason   JSONMap
	IgnoreReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (w *Wallet) IsIgnored() bool {
	return w.Tier != nil && *w.Tier == "ignore"
}

// Token is (chain, address): a symbol/name/decimals cache.
type Token struct {
	Chain     string
	Address   string
	Symbol    string
	Name      string
	Decimals  int
	UpdatedAt time.Time
}

// WatchPair is (chain, pair_address): a DEX pool under observation.
type WatchPair struct {
	Chain         string
	PairAddress   string
	Dex           string
	Token0Symbol  string
	Token0Address string
	Token1Symbol  string
	Token1Address string
	Source        string // autopilot | seed_pack
	Priority      int
	Score         float64
	Reason        JSONMap
	ExpiresAt     time.Time
	LastSeen      *time.Time
}

func (p *WatchPair) Active(now time.Time) bool {
	return p.ExpiresAt.After(now)
}

// Trade is (chain, tx_hash, log_index): an immutable decoded swap.
type Trade struct {
	Chain            string
	TxHash           string
	LogIndex         int
	WalletAddress    *string
	TokenAddress     *string
	Side             *string // buy | sell | nil
	Amount           *float64
	Price            *float64
	USDValue         *float64
	BlockNumber      *int64
	BlockTime        *time.Time
	Dex              *string
	PairAddress      *string
	DecodeConfidence float64
	CreatedAt        time.Time
}

// Position is (chain, wallet, token): Profiler-derived holdings.
type Position struct {
	Chain         string
	WalletAddress string
	TokenAddress  string
	Quantity      float64
	AveragePrice  *float64
	UpdatedAt     time.Time
}

// WalletMetric is (chain, wallet): Profiler's sole-writer summary.
type WalletMetric struct {
	Chain         string
	WalletAddress string
	TotalValue    float64
	PnL           float64
	UpdatedAt     time.Time
}

// TokenRisk is (chain, address): the Risk worker's sole-writer output.
type TokenRisk struct {
	Chain      string
	Address    string
	Score      float64
	TSS        float64
	Flags      JSONList
	Components JSONMap
	UpdatedAt  time.Time
}

// RiskSnapshot is one entry of components.history, used by the
// Outcomes worker's risk-window assessment.
type RiskSnapshot struct {
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
	Flags               []string   `json:"flags,omitempty"`
	MaxSuggestedSizeUSD *float64   `json:"max_suggested_size_usd,omitempty"`
	LiquidityUSD        *float64   `json:"liquidity_usd,omitempty"`
	Sellable            *bool      `json:"sellable,omitempty"`
	ExitSlippage1k      *float64   `json:"exit_slippage_1k,omitempty"`
}

// Alert is an append-only emitted signal.
type Alert struct {
	ID            int64
	Chain         string
	WalletAddress *string
	TokenAddress  *string
	AlertType     string // trade_conviction | pool_activity | wallet_tier
	TSS           *float64
	Conviction    *float64
	Reasons       JSONMap
	Narrative     *string
	CreatedAt     time.Time
}

// SignalOutcome is (alert_id, horizon_minutes) unique: the Outcomes
// worker's sole-writer result.
type SignalOutcome struct {
	AlertID                  int64
	HorizonMinutes           int
	WasSellableEntireWindow  *bool
	MinExitSlippage1k        *float64
	MaxExitSlippage1k        *float64
	TradeablePeakGain        *float64
	ExitFeasiblePeakGain     *float64
	ExitFeasiblePeakTime     *time.Time
	TradeableDrawdown        *float64
	NetTradeableReturnEst    *float64
	TrapFlag                 bool
	EvaluatedAt              time.Time
}

// GasCostObservation is (chain, tx_hash): one receipt-derived gas sample.
type GasCostObservation struct {
	Chain               string
	TxHash              string
	GasUsed             int64
	EffectiveGasPriceWei float64
	NativePriceUSD      float64
	GasCostUSD          float64
	ObservedAt          time.Time
}

// ChainGasEstimate is (chain): a rolling 1h avg/p95 gas cost estimate.
type ChainGasEstimate struct {
	Chain        string
	AvgGasUSD1h  float64
	P95GasUSD1h  float64
	SampleCount  int
	UpdatedAt    time.Time
}

// JSONMap is a duck-typed JSON object column, per the design note on
// heterogeneous shapes: always read defensively, missing keys yield
// zero values.
type JSONMap map[string]interface{}

func (m JSONMap) GetFloat(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func (m JSONMap) GetString(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (m JSONMap) GetMap(key string) JSONMap {
	v, ok := m[key]
	if !ok {
		return nil
	}
	if nested, ok := v.(map[string]interface{}); ok {
		return JSONMap(nested)
	}
	return nil
}

func (m JSONMap) GetList(key string) JSONList {
	v, ok := m[key]
	if !ok {
		return nil
	}
	if list, ok := v.([]interface{}); ok {
		return JSONList(list)
	}
	return nil
}

// JSONList is a duck-typed JSON array column.
type JSONList []interface{}

func (l JSONList) Strings() []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
