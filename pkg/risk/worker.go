package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/titan-signal/titan/pkg/store"
	"github.com/titan-signal/titan/pkg/streambus"
	"github.com/titan-signal/titan/pkg/workerrors"
)

const (
	enqueueGroup  = "risk-enqueue"
	enqueueConsumer = "risk-enqueue-1"
	scoreGroup    = "risk-score"
	scoreConsumer = "risk-score-1"

	dedupeSet     = "risk:job_dedupe"
	dedupeTTL     = 60 * time.Second
	dexScreenerTTL = 60 * time.Second
	goPlusTTL     = 300 * time.Second
)

// Worker runs the Risk component's two independent loops: one turns
// decoded trades into deduped per-token jobs, the other turns those
// jobs into scored TokenRisk rows.
type Worker struct {
	bus        *streambus.Bus
	store      *store.Store
	dexscreener *DexScreenerClient
	goplus     *GoPlusClient
	log        zerolog.Logger
}

func NewWorker(bus *streambus.Bus, st *store.Store, ds *DexScreenerClient, gp *GoPlusClient, log zerolog.Logger) *Worker {
	return &Worker{bus: bus, store: st, dexscreener: ds, goplus: gp, log: log.With().Str("worker", "risk").Logger()}
}

func (w *Worker) Setup(ctx context.Context) error {
	if err := w.bus.EnsureConsumerGroup(ctx, streambus.StreamDecodedTrades, enqueueGroup); err != nil {
		return err
	}
	return w.bus.EnsureConsumerGroup(ctx, streambus.StreamRiskJobs, scoreGroup)
}

// ProcessEnqueueBatch drains decoded trades and publishes one risk job
// per (chain, token) not already deduped within the last 60s.
func (w *Worker) ProcessEnqueueBatch(ctx context.Context, count int64, blockFor time.Duration) (int, error) {
	msgs, err := w.bus.Consume(ctx, streambus.StreamDecodedTrades, enqueueGroup, enqueueConsumer, count, blockFor)
	if err != nil {
		return 0, err
	}
	for _, msg := range msgs {
		if err := w.enqueueOne(ctx, msg); err != nil {
			w.log.Warn().Err(err).Str("message_id", msg.ID).Msg("enqueue failed")
			if rdErr := w.bus.RetryOrDeadLetter(ctx, streambus.StreamDecodedTrades, enqueueGroup, msg, 3); rdErr != nil {
				w.log.Error().Err(rdErr).Msg("retry_or_dead_letter failed")
			}
			continue
		}
		_ = w.bus.Ack(ctx, streambus.StreamDecodedTrades, enqueueGroup, msg.ID)
	}
	return len(msgs), nil
}

func (w *Worker) enqueueOne(ctx context.Context, msg streambus.Message) error {
	chain := msg.Fields["chain"]
	token := msg.Fields["token_address"]
	if chain == "" || token == "" {
		return nil // sync-only event with no token, nothing to score
	}
	dupeKey := fmt.Sprintf("%s:%s", chain, token)
	dup, err := w.bus.DedupeCheckAndSet(ctx, dedupeSet, dupeKey, dedupeTTL)
	if err != nil {
		return workerrors.Transientf(err)
	}
	if dup {
		return nil
	}
	return w.bus.Publish(ctx, streambus.StreamRiskJobs, map[string]interface{}{
		"chain":         chain,
		"token_address": token,
	})
}

// ProcessScoreBatch drains risk jobs and writes a TokenRisk row for
// each, degrading to a zero score rather than dropping the job when
// both external sources fail.
func (w *Worker) ProcessScoreBatch(ctx context.Context, count int64, blockFor time.Duration) (int, error) {
	msgs, err := w.bus.Consume(ctx, streambus.StreamRiskJobs, scoreGroup, scoreConsumer, count, blockFor)
	if err != nil {
		return 0, err
	}
	for _, msg := range msgs {
		if err := w.scoreOne(ctx, msg); err != nil {
			w.log.Warn().Err(err).Str("message_id", msg.ID).Msg("scoring failed")
			if rdErr := w.bus.RetryOrDeadLetter(ctx, streambus.StreamRiskJobs, scoreGroup, msg, 3); rdErr != nil {
				w.log.Error().Err(rdErr).Msg("retry_or_dead_letter failed")
			}
			continue
		}
		_ = w.bus.Ack(ctx, streambus.StreamRiskJobs, scoreGroup, msg.ID)
	}
	return len(msgs), nil
}

func (w *Worker) scoreOne(ctx context.Context, msg streambus.Message) error {
	chain := msg.Fields["chain"]
	token := msg.Fields["token_address"]
	if chain == "" || token == "" {
		return workerrors.ErrMalformedMessage
	}

	assessment, err := w.assess(ctx, chain, token)
	if err != nil {
		w.log.Warn().Err(err).Str("chain", chain).Str("token", token).Msg("external fetch failed, degrading")
		assessment = Degraded()
	}

	existing, err := w.store.GetTokenRisk(ctx, chain, token)
	if err != nil {
		return workerrors.Transientf(err)
	}
	components := appendHistorySnapshot(assessment, existing)

	tr := store.TokenRisk{
		Chain:      chain,
		Address:    token,
		Score:      assessment.Score,
		TSS:        assessment.Score,
		Flags:      toJSONList(assessment.Flags),
		Components: components,
	}
	if err := w.store.UpsertTokenRisk(ctx, tr); err != nil {
		return workerrors.Transientf(err)
	}
	return nil
}

func (w *Worker) assess(ctx context.Context, chain, token string) (Assessment, error) {
	pairs, dsErr := w.cachedPairs(ctx, chain, token)
	gp, gpKnown, gpErr := w.cachedGoPlus(ctx, chain, token)
	if dsErr != nil && gpErr != nil {
		return Assessment{}, fmt.Errorf("dexscreener: %v, goplus: %v", dsErr, gpErr)
	}
	return ComputeTSS(pairs, gp, gpKnown), nil
}

func (w *Worker) cachedPairs(ctx context.Context, chain, token string) ([]DexScreenerPair, error) {
	key := fmt.Sprintf("risk:dexscreener:%s:%s", chain, token)
	var cached []DexScreenerPair
	if ok, _ := w.bus.CacheGetJSON(ctx, key, &cached); ok {
		return cached, nil
	}
	pairs, err := w.dexscreener.TokenPairs(ctx, token)
	if err != nil {
		return nil, err
	}
	_ = w.bus.CacheSetJSON(ctx, key, pairs, dexScreenerTTL)
	return pairs, nil
}

func (w *Worker) cachedGoPlus(ctx context.Context, chain, token string) (GoPlusResult, bool, error) {
	key := fmt.Sprintf("risk:goplus:%s:%s", chain, token)
	var cached goPlusCacheEntry
	if ok, _ := w.bus.CacheGetJSON(ctx, key, &cached); ok {
		return cached.Result, cached.Known, nil
	}
	result, known, err := w.goplus.TokenSecurity(ctx, chain, token)
	if err != nil {
		return GoPlusResult{}, false, err
	}
	_ = w.bus.CacheSetJSON(ctx, key, goPlusCacheEntry{Result: result, Known: known}, goPlusTTL)
	return result, known, nil
}

type goPlusCacheEntry struct {
	Result GoPlusResult `json:"result"`
	Known  bool         `json:"known"`
}

func toJSONList(flags []string) store.JSONList {
	out := make(store.JSONList, len(flags))
	for i, f := range flags {
		out[i] = f
	}
	return out
}

// appendHistorySnapshot folds the new assessment onto the existing
// row's components.history as a flat snapshot (updated_at, flags,
// max_suggested_size_usd, liquidity_usd, sellable), capped at 200
// entries so the column doesn't grow without bound — the Outcomes
// worker only ever needs the entries covering its longest horizon
// (24h).
func appendHistorySnapshot(assessment Assessment, existing *store.TokenRisk) store.JSONMap {
	components := assessment.Components
	var history []interface{}
	if existing != nil {
		history = []interface{}(existing.Components.GetList("history"))
	}
	flags := make([]interface{}, len(assessment.Flags))
	for i, f := range assessment.Flags {
		flags[i] = f
	}
	history = append(history, map[string]interface{}{
		"updated_at":             nowRFC3339(),
		"flags":                  flags,
		"max_suggested_size_usd": assessment.MaxSuggestedSizeUSD,
		"liquidity_usd":          assessment.LiquidityUSD,
		"sellable":               assessment.Sellable,
		"exit_slippage_1k":       assessment.EstimatedSlippage,
	})
	const maxHistory = 200
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	components["history"] = history
	return components
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
