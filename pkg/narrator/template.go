// Package narrator turns an alert's reasons JSON into a short
// human-readable summary, preferring an LLM call but always falling
// back to a deterministic template when the model is unavailable or
// its output can't be trusted.
package narrator

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/titan-signal/titan/pkg/store"
)

var (
	numberRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)
)

// DeterministicTemplate builds the fallback narrative straight from
// the reasons JSON, listing whichever of a fixed set of fields are
// present and formatting the reasons/risks/invalidation lists.
func DeterministicTemplate(reasons store.JSONMap) string {
	var parts []string
	for _, key := range []string{"conviction", "tss", "regime", "tier", "wallet_total_value", "total_value"} {
		if v, ok := reasons[key]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("%s %s", key, formatScalar(v)))
		}
	}
	summary := "Alert summary based on provided signals"
	if len(parts) > 0 {
		summary = summary + ": " + strings.Join(parts, ", ")
	}
	sentenceOne := summary + "."

	sentenceTwo := fmt.Sprintf(
		"Reasons: %s. Risks: %s. Invalidation: %s.",
		formatList(reasons["reasons"]), formatList(reasons["risks"]), formatList(reasons["invalidation"]),
	)
	return sentenceOne + " " + sentenceTwo
}

func formatScalar(v interface{}) string {
	switch t := v.(type) {
	case map[string]interface{}:
		return sortedJSON(t)
	case []interface{}:
		return sortedJSON(t)
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatList(v interface{}) string {
	if v == nil {
		return "none provided"
	}
	var items []string
	if list, ok := v.([]interface{}); ok {
		for _, item := range list {
			if item == nil {
				continue
			}
			items = append(items, formatScalar(item))
		}
	} else {
		items = append(items, formatScalar(v))
	}
	if len(items) == 0 {
		return "none provided"
	}
	return strings.Join(items, "; ")
}

// sortedJSON renders a nested value the same way Python's
// json.dumps(..., sort_keys=True) would, close enough for a fallback
// narrative (only used when a reasons field unexpectedly nests a
// map/list instead of a scalar).
func sortedJSON(v interface{}) string {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, sortedJSON(t[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []interface{}:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = sortedJSON(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return strconv.Quote(t)
	default:
		return formatScalar(t)
	}
}

// TrimToSentences keeps at most limit sentences from text, re-joined
// with ". " and a trailing period.
func TrimToSentences(text string, limit int) string {
	raw := sentenceRe.Split(text, -1)
	var sentences []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) > limit {
		sentences = sentences[:limit]
	}
	return strings.Join(sentences, ". ") + "."
}

func sentenceCount(text string) int {
	n := 0
	for _, s := range sentenceRe.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

// ResponseHasOnlyKnownNumbers reports whether every numeric token in
// response also appears verbatim somewhere in reasonsJSON — the guard
// against a model inventing or calculating a number.
func ResponseHasOnlyKnownNumbers(response, reasonsJSON string) bool {
	allowed := make(map[string]bool)
	for _, n := range numberRe.FindAllString(reasonsJSON, -1) {
		allowed[n] = true
	}
	for _, n := range numberRe.FindAllString(response, -1) {
		if !allowed[n] {
			return false
		}
	}
	return true
}
