// Package outcomes evaluates how a signal actually played out: for
// each alert, at several horizons, it reconstructs the risk window the
// holder traded inside, estimates exit slippage, and measures both the
// raw and the exit-feasible peak gain against the realized price path.
package outcomes

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/titan-signal/titan/pkg/store"
)

// Horizons are the fixed evaluation windows, in minutes, every
// eligible alert is scored against.
var Horizons = []int{30, 360, 1440}

const RunIntervalSeconds = 300

var criticalRiskFlags = map[string]bool{
	"honeypot":               true,
	"cannot_sell":            true,
	"liquidity_floor_breach": true,
	"liquidity_pull":         true,
}

// Snapshot is one point-in-time risk reading, whether drawn from
// components.history or synthesized from the TokenRisk row's current
// state.
type Snapshot struct {
	UpdatedAt           *time.Time
	Flags               []string
	MaxSuggestedSizeUSD *float64
	LiquidityUSD        *float64
	Sellable            *bool
	ExitSlippage1k      *float64
}

// ExtractSnapshots reads components.history off a TokenRisk row, or
// synthesizes a single snapshot from the row's current state when
// history is empty.
func ExtractSnapshots(tr *store.TokenRisk) []Snapshot {
	if tr == nil {
		return nil
	}
	history := tr.Components.GetList("history")
	var out []Snapshot
	for _, item := range history {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, snapshotFromMap(store.JSONMap(m)))
	}
	if len(out) > 0 {
		return out
	}

	synth := Snapshot{
		UpdatedAt: optionalTime(tr.UpdatedAt),
		Flags:     tr.Flags.Strings(),
	}
	if v, ok := tr.Components.GetFloat("max_suggested_size_usd"); ok {
		synth.MaxSuggestedSizeUSD = &v
	}
	if v, ok := tr.Components.GetMap("tss").GetMap("dexscreener").GetFloat("max_liquidity_usd"); ok {
		synth.LiquidityUSD = &v
	}
	return []Snapshot{synth}
}

func snapshotFromMap(m store.JSONMap) Snapshot {
	s := Snapshot{}
	if ts, ok := m["updated_at"]; ok {
		s.UpdatedAt = parseSnapshotTime(ts)
	}
	if flags, ok := m["flags"]; ok {
		s.Flags = normalizeFlags(flags)
	}
	if v, ok := m.GetFloat("max_suggested_size_usd"); ok {
		s.MaxSuggestedSizeUSD = &v
	} else if nested, ok := m["components"].(map[string]interface{}); ok {
		if v, ok := store.JSONMap(nested).GetFloat("max_suggested_size_usd"); ok {
			s.MaxSuggestedSizeUSD = &v
		}
	}
	if v, ok := m.GetFloat("liquidity_usd"); ok {
		s.LiquidityUSD = &v
	}
	if v, ok := m["sellable"].(bool); ok {
		s.Sellable = &v
	} else if v, ok := m["sellability"].(bool); ok {
		s.Sellable = &v
	} else if v, ok := m["can_sell"].(bool); ok {
		s.Sellable = &v
	}
	if slip, ok := m["slippage"].(map[string]interface{}); ok {
		if v, ok := store.JSONMap(slip).GetFloat("exit_slippage_1k"); ok {
			s.ExitSlippage1k = &v
		}
	} else if v, ok := m.GetFloat("exit_slippage_1k"); ok {
		s.ExitSlippage1k = &v
	}
	return s
}

// normalizeFlags lower-cases and trims a flags value that may be a
// list or a map of truthy values, mirroring the tolerant parsing the
// rest of the flag-reading code in this system uses.
func normalizeFlags(value interface{}) []string {
	switch v := value.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, strings.ToLower(strings.TrimSpace(s)))
			}
		}
		return out
	case map[string]interface{}:
		out := make([]string, 0, len(v))
		for k, raw := range v {
			if truthy(raw) {
				out = append(out, strings.ToLower(strings.TrimSpace(k)))
			}
		}
		return out
	}
	return nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0" && strings.ToLower(t) != "false"
	}
	return v != nil
}

// parseSnapshotTime handles epoch seconds/ms (as float64 or numeric
// string) and ISO-8601 strings, including a trailing "Z".
func parseSnapshotTime(v interface{}) *time.Time {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		s := strings.TrimSuffix(t, "Z")
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return &ts
		}
		if ts, err := time.Parse("2006-01-02T15:04:05.999999", s); err == nil {
			ts = ts.UTC()
			return &ts
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			ts := epochToTime(f)
			return &ts
		}
	case float64:
		ts := epochToTime(t)
		return &ts
	}
	return nil
}

func epochToTime(f float64) time.Time {
	if f > 1e12 { // milliseconds
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// HasCriticalFlag reports whether any of a snapshot's flags are in the
// fixed critical set that marks a token as trapped.
func (s Snapshot) HasCriticalFlag() bool {
	for _, f := range s.Flags {
		if criticalRiskFlags[strings.ToLower(f)] {
			return true
		}
	}
	return false
}

// IsSellable resolves the snapshot's sellability: an explicit
// sellable/sellability/can_sell boolean wins; absent that, it is
// inferred from the presence of a critical flag.
func (s Snapshot) IsSellable() bool {
	if s.Sellable != nil {
		return *s.Sellable
	}
	return !s.HasCriticalFlag()
}

// IsExitFeasible requires both a usable suggested size of at least
// $1,000 and sellability.
func (s Snapshot) IsExitFeasible() bool {
	if s.MaxSuggestedSizeUSD == nil || *s.MaxSuggestedSizeUSD < 1000 {
		return false
	}
	return s.IsSellable()
}

// InWindow filters snapshots with a parseable timestamp inside [start, end].
func InWindow(snapshots []Snapshot, start, end time.Time) []Snapshot {
	var out []Snapshot
	for _, s := range snapshots {
		if s.UpdatedAt == nil {
			continue
		}
		if !s.UpdatedAt.Before(start) && !s.UpdatedAt.After(end) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(*out[j].UpdatedAt) })
	return out
}

// WindowAssessment is the risk-window verdict used to seed
// sellability, trap detection, and the slippage/peak computations.
type WindowAssessment struct {
	Sellable         *bool // nil means unknown (insufficient snapshots)
	TrapFlag         bool
	RiskInsufficient bool
	InWindow         []Snapshot
}

// AssessWindow implements the risk-window sellability rule: fewer than
// two snapshots in the window leaves sellability unknown; otherwise a
// critical flag anywhere in the window marks a trap.
func AssessWindow(snapshots []Snapshot, start, end time.Time) WindowAssessment {
	inWindow := InWindow(snapshots, start, end)
	if len(inWindow) < 2 {
		return WindowAssessment{RiskInsufficient: true, InWindow: inWindow}
	}
	for _, s := range inWindow {
		if s.HasCriticalFlag() {
			return WindowAssessment{Sellable: boolPtr(false), TrapFlag: true, InWindow: inWindow}
		}
	}
	return WindowAssessment{Sellable: boolPtr(true), InWindow: inWindow}
}

func boolPtr(b bool) *bool { return &b }

// EstimateSlippage returns the min/max exit slippage at $1,000 notional
// across a set of in-window snapshots, preferring each snapshot's
// direct exit_slippage_1k and otherwise deriving it from its suggested
// max size (or liquidity as a floor). Both results are nil when no
// snapshot yields an estimate.
func EstimateSlippage(snapshots []Snapshot) (min, max *float64) {
	const notional = 1000.0
	for _, s := range snapshots {
		var estimate *float64
		switch {
		case s.ExitSlippage1k != nil:
			v := *s.ExitSlippage1k
			if v < 0 {
				v = 0
			}
			estimate = &v
		case s.MaxSuggestedSizeUSD != nil && *s.MaxSuggestedSizeUSD > 0:
			v := clamp(0.02*notional/(*s.MaxSuggestedSizeUSD), 0.0025, 0.40)
			estimate = &v
		case s.LiquidityUSD != nil && *s.LiquidityUSD > 0:
			floorSize := *s.LiquidityUSD * 0.02
			v := clamp(0.02*notional/floorSize, 0.0025, 0.40)
			estimate = &v
		}
		if estimate == nil {
			continue
		}
		if min == nil || *estimate < *min {
			v := *estimate
			min = &v
		}
		if max == nil || *estimate > *max {
			v := *estimate
			max = &v
		}
	}
	return min, max
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
