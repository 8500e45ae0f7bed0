package decode

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
	groupName    = "decoders"
	consumerName = "decoder-1"
)

// Worker consumes raw log events, decodes them into trades, persists
// every decode attempt regardless of confidence, and republishes only
// the ones that cleared MinPublishConfidence onto the decoded trades
// stream for the Risk/Profiler/Alerts workers downstream.
type Worker struct {
	bus     *streambus.Bus
	store   *store.Store
	decoder *Decoder
	log     zerolog.Logger
}

func NewWorker(bus *streambus.Bus, st *store.Store, decoder *Decoder, log zerolog.Logger) *Worker {
	return &Worker{bus: bus, store: st, decoder: decoder, log: log.With().Str("worker", "decoder").Logger()}
}

func (w *Worker) Setup(ctx context.Context) error {
	return w.bus.EnsureConsumerGroup(ctx, streambus.StreamRawEvents, groupName)
}

// ProcessBatch drains up to count raw events, blocking up to blockFor
// for new ones, and returns how many were read.
func (w *Worker) ProcessBatch(ctx context.Context, count int64, blockFor time.Duration) (int, error) {
	msgs, err := w.bus.Consume(ctx, streambus.StreamRawEvents, groupName, consumerName, count, blockFor)
	if err != nil {
		return 0, err
	}
	for _, msg := range msgs {
		if handleErr := w.handle(ctx, msg); handleErr != nil {
			w.log.Warn().Err(handleErr).Str("message_id", msg.ID).Msg("decode failed")
			if rdErr := w.bus.RetryOrDeadLetter(ctx, streambus.StreamRawEvents, groupName, msg, 3); rdErr != nil {
				w.log.Error().Err(rdErr).Msg("retry_or_dead_letter failed")
			}
			continue
		}
		if ackErr := w.bus.Ack(ctx, streambus.StreamRawEvents, groupName, msg.ID); ackErr != nil {
			w.log.Error().Err(ackErr).Msg("ack failed")
		}
	}
	return len(msgs), nil
}

func (w *Worker) handle(ctx context.Context, msg streambus.Message) error {
	ev := rawEventFromFields(msg.Fields)
	decoded, err := w.decoder.Decode(ctx, ev)
	if err != nil {
		return err
	}
	if decoded.TxHash == "" {
		return workerrors.ErrMalformedMessage
	}

	if decoded.WalletAddress != "" {
		ignored, err := w.store.IsWalletIgnored(ctx, decoded.Chain, decoded.WalletAddress)
		if err != nil {
			return workerrors.Transientf(err)
		}
		if ignored {
			w.log.Info().Str("chain", decoded.Chain).Str("wallet", decoded.WalletAddress).
				Str("tx", decoded.TxHash).Msg("skipped ignored wallet")
			return nil
		}
	}

	trade := toTrade(decoded)
	if err := w.store.UpsertTrade(ctx, trade); err != nil {
		return workerrors.Transientf(err)
	}

	if decoded.ShouldPublish() {
		if err := w.bus.Publish(ctx, streambus.StreamDecodedTrades, decodedFields(decoded)); err != nil {
			return workerrors.Transientf(err)
		}
	}
	return nil
}

func rawEventFromFields(fields map[string]string) RawEvent {
	var topics []string
	if raw, ok := fields["topics"]; ok {
		_ = jsonUnmarshalStrings(raw, &topics)
	}
	return RawEvent{
		Chain:       orDefault(fields["chain"], "ethereum"),
		TxHash:      firstField(fields, "txHash", "tx_hash"),
		LogIndex:    parseUint(firstField(fields, "logIndex", "log_index")),
		BlockNumber: parseUint(firstField(fields, "blockNumber", "block_number")),
		Address:     fields["address"],
		Topics:      topics,
		Data:        fields["data"],
	}
}

func toTrade(d Decoded) store.Trade {
	t := store.Trade{
		Chain:            d.Chain,
		TxHash:           d.TxHash,
		LogIndex:         int(d.LogIndex),
		DecodeConfidence: d.DecodeConfidence,
		CreatedAt:        timeNow(),
	}
	if d.WalletAddress != "" {
		t.WalletAddress = &d.WalletAddress
	}
	if d.TokenAddress != "" {
		t.TokenAddress = &d.TokenAddress
	}
	if d.Side != "" {
		t.Side = &d.Side
	}
	if d.Amount != 0 {
		t.Amount = &d.Amount
	}
	if d.Dex != "" {
		t.Dex = &d.Dex
	}
	if d.PairAddress != "" {
		t.PairAddress = &d.PairAddress
	}
	if d.BlockNumber != 0 {
		bn := int64(d.BlockNumber)
		t.BlockNumber = &bn
	}
	return t
}

func decodedFields(d Decoded) map[string]interface{} {
	return map[string]interface{}{
		"chain":             d.Chain,
		"tx_hash":           d.TxHash,
		"log_index":         fmt.Sprintf("%d", d.LogIndex),
		"wallet_address":    d.WalletAddress,
		"token_address":     d.TokenAddress,
		"side":              d.Side,
		"amount":            fmt.Sprintf("%v", d.Amount),
		"dex":               d.Dex,
		"pair_address":      d.PairAddress,
		"decode_confidence": fmt.Sprintf("%v", d.DecodeConfidence),
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func firstField(fields map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != "" {
			return v
		}
	}
	return ""
}
