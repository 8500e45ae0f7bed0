package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/titan-signal/titan/pkg/httpx"
	"github.com/titan-signal/titan/pkg/store"
)

const (
	maxNarrativeSentences = 3
	minNarrativeSentences = 2
)

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Service narrates an alert's reasons, preferring Ollama and always
// falling back to the deterministic template when the model is
// unreachable, returns too little text, or invents a number that
// doesn't appear anywhere in the source JSON.
type Service struct {
	http    *httpx.Client
	baseURL string
	model   string
	log     zerolog.Logger
}

func NewService(http *httpx.Client, baseURL, model string, log zerolog.Logger) *Service {
	return &Service{http: http, baseURL: baseURL, model: model, log: log.With().Str("component", "narrator").Logger()}
}

// NarrateReasons implements profiler.Narrator.
func (s *Service) NarrateReasons(ctx context.Context, reasons store.JSONMap) string {
	fallback := DeterministicTemplate(reasons)
	if s.baseURL == "" {
		return fallback
	}

	reasonsJSON, err := canonicalJSON(reasons)
	if err != nil {
		return fallback
	}

	req := ollamaRequest{
		Model:  s.model,
		Prompt: buildPrompt(reasonsJSON),
		Stream: false,
	}
	var resp ollamaResponse
	url := strings.TrimRight(s.baseURL, "/") + "/api/generate"
	if err := s.http.PostJSON(ctx, url, req, &resp); err != nil {
		s.log.Warn().Err(err).Msg("ollama call failed, using deterministic template")
		return fallback
	}

	text := strings.TrimSpace(resp.Response)
	if text == "" {
		return fallback
	}
	if sentenceCount(text) < minNarrativeSentences {
		return fallback
	}
	trimmed := TrimToSentences(text, maxNarrativeSentences)
	if !ResponseHasOnlyKnownNumbers(trimmed, reasonsJSON) {
		s.log.Warn().Msg("ollama response cited an unverifiable number, using deterministic template")
		return fallback
	}
	return trimmed
}

func buildPrompt(reasonsJSON string) string {
	return fmt.Sprintf(
		"You are narrating a trading alert for a trader. Using ONLY the exact values below, "+
			"write a 2-3 sentence summary. Do not invent, estimate, or calculate any number that "+
			"is not already present verbatim in this data:\n\n%s\n\nSummary:",
		reasonsJSON,
	)
}

// canonicalJSON renders reasons with sorted keys so every number in it
// is scanned once for the hallucination check, mirroring
// json.dumps(reasons, sort_keys=True) on the Python side.
func canonicalJSON(reasons store.JSONMap) (string, error) {
	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]interface{}, len(reasons))
	for _, k := range keys {
		ordered[k] = reasons[k]
	}
	buf, err := json.Marshal(ordered)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
