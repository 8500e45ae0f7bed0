package narrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/titan-signal/titan/pkg/store"
)

func TestDeterministicTemplateIncludesKnownFields(t *testing.T) {
	reasons := store.JSONMap{
		"conviction": "high",
		"tss":        72.5,
		"reasons":    []interface{}{"liquidity deepening", "wallet tier upgraded"},
		"risks":      []interface{}{"thin order book"},
	}
	out := DeterministicTemplate(reasons)
	assert.Contains(t, out, "conviction high")
	assert.Contains(t, out, "tss 72.5")
	assert.Contains(t, out, "liquidity deepening; wallet tier upgraded")
	assert.Contains(t, out, "thin order book")
	assert.Contains(t, out, "Invalidation: none provided")
}

func TestDeterministicTemplateHandlesEmptyReasons(t *testing.T) {
	out := DeterministicTemplate(store.JSONMap{})
	assert.Contains(t, out, "Alert summary based on provided signals.")
	assert.Contains(t, out, "Reasons: none provided")
}

func TestTrimToSentencesCapsAtLimit(t *testing.T) {
	text := "One. Two. Three. Four."
	out := TrimToSentences(text, 3)
	assert.Equal(t, "One. Two. Three.", out)
}

func TestTrimToSentencesHandlesFewerThanLimit(t *testing.T) {
	out := TrimToSentences("Only one sentence here.", 3)
	assert.Equal(t, "Only one sentence here.", out)
}

func TestSentenceCount(t *testing.T) {
	assert.Equal(t, 2, sentenceCount("First one. Second one."))
	assert.Equal(t, 1, sentenceCount("Just one, no split."))
	assert.Equal(t, 0, sentenceCount(""))
}

func TestResponseHasOnlyKnownNumbersAcceptsMatchingNumbers(t *testing.T) {
	reasonsJSON := `{"tss": 72.5, "liquidity_usd": 15000}`
	response := "The token scored 72.5 with liquidity around 15000."
	assert.True(t, ResponseHasOnlyKnownNumbers(response, reasonsJSON))
}

func TestResponseHasOnlyKnownNumbersRejectsInventedNumber(t *testing.T) {
	reasonsJSON := `{"tss": 72.5}`
	response := "The token scored 72.5 and is expected to 10x."
	assert.False(t, ResponseHasOnlyKnownNumbers(response, reasonsJSON))
}

func TestResponseHasOnlyKnownNumbersAcceptsNoNumbers(t *testing.T) {
	assert.True(t, ResponseHasOnlyKnownNumbers("No figures mentioned here.", `{"tss": 72.5}`))
}
