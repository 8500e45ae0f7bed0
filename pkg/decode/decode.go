// Package decode turns a raw chain log into a Trade candidate: it
// classifies the log against the known swap/sync topics, decodes the
// ABI-encoded payload, resolves the pool's underlying tokens, and
// assigns a decode_confidence score the rest of the pipeline uses as
// a publish gate.
package decode

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/titan-signal/titan/pkg/chainrpc"
	"github.com/titan-signal/titan/pkg/dexregistry"
)

// MinPublishConfidence is the decode_confidence floor below which a
// decoded trade is persisted but never published onto the decoded
// trades stream — a low-confidence guess is a row worth keeping for
// later study, not a signal worth acting on.
const MinPublishConfidence = 0.6

// TokenResolver looks up a pool's token0/token1 address, backed by a
// cached eth_call in production and a canned map in tests.
type TokenResolver interface {
	PoolToken(ctx context.Context, chain, pairAddress, selector string) (string, error)
}

// RawEvent is the flattened stream payload the Listener publishes.
type RawEvent struct {
	Chain       string
	TxHash      string
	LogIndex    uint64
	BlockNumber uint64
	Address     string
	Topics      []string
	Data        string
}

// Decoded is the outcome of decoding one raw event: a candidate trade
// plus its confidence, or a recognized-but-non-trade event (a Sync)
// with no trade fields set.
type Decoded struct {
	Chain          string
	TxHash         string
	LogIndex       uint64
	BlockNumber    uint64
	WalletAddress  string
	TokenAddress   string
	Side           string // "buy" or "sell"
	Amount         float64
	Dex            string
	PairAddress    string
	DecodeConfidence float64
}

func (d Decoded) ShouldPublish() bool {
	return d.DecodeConfidence >= MinPublishConfidence
}

func (d Decoded) IsTrade() bool {
	return d.WalletAddress != "" && d.TokenAddress != "" && d.Side != ""
}

type Decoder struct {
	registry *dexregistry.Registry
	tokens   TokenResolver
}

func New(registry *dexregistry.Registry, tokens TokenResolver) *Decoder {
	return &Decoder{registry: registry, tokens: tokens}
}

// Decode mirrors decode_raw_event: classify by topic0 against the
// registry entry for the log's emitting address, then dispatch to the
// v2 or v3 payload decoder.
func (d *Decoder) Decode(ctx context.Context, ev RawEvent) (Decoded, error) {
	out := Decoded{
		Chain:       strings.ToLower(ev.Chain),
		TxHash:      ev.TxHash,
		LogIndex:    ev.LogIndex,
		BlockNumber: ev.BlockNumber,
	}
	if ev.TxHash == "" {
		return out, fmt.Errorf("missing tx hash")
	}

	address := strings.ToLower(ev.Address)
	topics := lowerAll(ev.Topics)
	var topic0 string
	if len(topics) > 0 {
		topic0 = topics[0]
	}

	entry, known := d.registry.Lookup(ev.Chain, address)
	if !known || topic0 == "" {
		return out, nil
	}

	topicHash := common.HexToHash(topic0)
	kind, ok := chainrpc.TopicForDex(topicHash)
	if !ok {
		return out, nil
	}

	switch kind {
	case "v2_swap", "v3_swap":
		out.Dex = entry.Dex
		out.PairAddress = address
		out.DecodeConfidence = 0.5

		token0, err0 := d.tokens.PoolToken(ctx, out.Chain, address, chainrpc.Token0Selector)
		token1, err1 := d.tokens.PoolToken(ctx, out.Chain, address, chainrpc.Token1Selector)
		if err0 != nil {
			token0 = ""
		}
		if err1 != nil {
			token1 = ""
		}
		switch {
		case token0 != "" && token1 != "":
			out.DecodeConfidence += 0.2
		case token0 != "" || token1 != "":
			out.DecodeConfidence += 0.1
		}

		if kind == "v2_swap" {
			decodeV2Swap(&out, topics, ev.Data, token0, token1)
		} else {
			decodeV3Swap(&out, topics, ev.Data, token0, token1)
		}

	case "sync":
		if entry.Strategy == dexregistry.StrategyV2Pair {
			out.DecodeConfidence = maxFloat(out.DecodeConfidence, 0.3)
		}
	}

	if out.DecodeConfidence > 1.0 {
		out.DecodeConfidence = 1.0
	}
	return out, nil
}

func decodeV2Swap(out *Decoded, topics []string, data, token0, token1 string) {
	words, ok := decodeUint256Words(data, 4)
	if !ok {
		return
	}
	amount0In, amount1In, amount0Out, amount1Out := words[0], words[1], words[2], words[3]

	sender := topicAddress(topics, 1)
	to := topicAddress(topics, 2)
	out.WalletAddress = firstNonEmpty(sender, to)

	if amount0Out.Sign() > 0 || amount1In.Sign() > 0 {
		out.Side = "buy"
		out.TokenAddress = firstNonEmpty(token0, token1)
		out.Amount = wordOrFallback(amount0Out, amount1In)
	} else {
		out.Side = "sell"
		out.TokenAddress = firstNonEmpty(token0, token1)
		out.Amount = wordOrFallback(amount0In, amount1Out)
	}
	out.DecodeConfidence += 0.2
}

func decodeV3Swap(out *Decoded, topics []string, data, token0, token1 string) {
	words, ok := decodeInt256Words(data, 2)
	if !ok {
		return
	}
	amount0, amount1 := words[0], words[1]

	sender := topicAddress(topics, 1)
	recipient := topicAddress(topics, 2)
	out.WalletAddress = firstNonEmpty(sender, recipient)

	if amount0.Sign() < 0 {
		out.Side = "buy"
	} else {
		out.Side = "sell"
	}
	if amount0.Sign() != 0 {
		out.TokenAddress = token0
		out.Amount = absFloat(amount0)
	} else {
		out.TokenAddress = token1
		out.Amount = absFloat(amount1)
	}
	out.DecodeConfidence += 0.2
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func topicAddress(topics []string, idx int) string {
	if idx >= len(topics) {
		return ""
	}
	t := strings.TrimPrefix(topics[idx], "0x")
	if len(t) < 40 {
		return ""
	}
	return "0x" + strings.ToLower(t[len(t)-40:])
}

func decodeUint256Words(data string, count int) ([]*big.Int, bool) {
	payload := strings.TrimPrefix(data, "0x")
	if len(payload) < count*64 {
		return nil, false
	}
	out := make([]*big.Int, count)
	for i := 0; i < count; i++ {
		raw, err := hex.DecodeString(payload[i*64 : (i+1)*64])
		if err != nil {
			return nil, false
		}
		out[i] = new(big.Int).SetBytes(raw)
	}
	return out, true
}

// decodeInt256Words decodes two's-complement 256-bit signed words.
func decodeInt256Words(data string, count int) ([]*big.Int, bool) {
	words, ok := decodeUint256Words(data, count)
	if !ok {
		return nil, false
	}
	max256 := new(big.Int).Lsh(big.NewInt(1), 255)
	mod256 := new(big.Int).Lsh(big.NewInt(1), 256)
	out := make([]*big.Int, len(words))
	for i, w := range words {
		if w.Cmp(max256) >= 0 {
			out[i] = new(big.Int).Sub(w, mod256)
		} else {
			out[i] = w
		}
	}
	return out, true
}

func wordOrFallback(primary, fallback *big.Int) float64 {
	if primary.Sign() > 0 {
		return bigToFloat(primary)
	}
	return bigToFloat(fallback)
}

func bigToFloat(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}

func absFloat(v *big.Int) float64 {
	return bigToFloat(new(big.Int).Abs(v))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
