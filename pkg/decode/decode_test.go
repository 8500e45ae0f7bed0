package decode

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titan-signal/titan/pkg/chainrpc"
	"github.com/titan-signal/titan/pkg/dexregistry"
)

type fakeResolver struct {
	tokens map[string]string
	err    error
}

func (f *fakeResolver) PoolToken(_ context.Context, chain, pair, selector string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.tokens[chain+":"+pair+":"+selector], nil
}

const (
	ethPair = "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc"
	token0  = "0x0000000000000000000000000000000000000a"
	token1  = "0x0000000000000000000000000000000000000b"
	sender  = "0x00000000000000000000000000000000000c1"
)

func topicWord(addr string) string {
	trimmed := strings.TrimPrefix(addr, "0x")
	return "0x" + strings.Repeat("0", 64-len(trimmed)) + trimmed
}

func uint256Words(vals ...uint64) string {
	var sb strings.Builder
	for _, v := range vals {
		sb.WriteString(fmtPadded(v))
	}
	return sb.String()
}

func fmtPadded(v uint64) string {
	hex := bigHex(v)
	return strings.Repeat("0", 64-len(hex)) + hex
}

func bigHex(v uint64) string {
	if v == 0 {
		return "0"
	}
	const digits = "0123456789abcdef"
	var out []byte
	for v > 0 {
		out = append([]byte{digits[v%16]}, out...)
		v /= 16
	}
	return string(out)
}

func newResolver() *fakeResolver {
	return &fakeResolver{tokens: map[string]string{
		"ethereum:" + ethPair + ":" + chainrpc.Token0Selector: token0,
		"ethereum:" + ethPair + ":" + chainrpc.Token1Selector: token1,
	}}
}

func newDecoder(resolver TokenResolver) *Decoder {
	return New(dexregistry.New(), resolver)
}

func TestDecodeV2SwapBuy(t *testing.T) {
	d := newDecoder(newResolver())
	ev := RawEvent{
		Chain:   "ethereum",
		TxHash:  "0xabc",
		Address: ethPair,
		Topics:  []string{chainrpc.TopicV2Swap.Hex(), topicWord(sender), topicWord(sender)},
		Data:    "0x" + uint256Words(0, 0, 1_000_000, 0),
	}

	out, err := d.Decode(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, "buy", out.Side)
	assert.Equal(t, float64(1_000_000), out.Amount)
	assert.InDelta(t, 0.9, out.DecodeConfidence, 1e-9)
	assert.True(t, out.ShouldPublish())
	assert.True(t, out.IsTrade())
}

func TestDecodeV2SwapSell(t *testing.T) {
	d := newDecoder(newResolver())
	ev := RawEvent{
		Chain:   "ethereum",
		TxHash:  "0xdef",
		Address: ethPair,
		Topics:  []string{chainrpc.TopicV2Swap.Hex(), topicWord(sender), topicWord(sender)},
		Data:    "0x" + uint256Words(500, 0, 0, 0),
	}

	out, err := d.Decode(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, "sell", out.Side)
	assert.Equal(t, float64(500), out.Amount)
}

func TestDecodeUnknownAddressStaysLowConfidence(t *testing.T) {
	d := newDecoder(newResolver())
	ev := RawEvent{
		Chain:   "ethereum",
		TxHash:  "0x123",
		Address: "0x000000000000000000000000000000deadbeef",
		Topics:  []string{chainrpc.TopicV2Swap.Hex()},
		Data:    "0x" + uint256Words(0, 0, 1, 0),
	}

	out, err := d.Decode(context.Background(), ev)
	require.NoError(t, err)
	assert.Zero(t, out.DecodeConfidence)
	assert.False(t, out.ShouldPublish())
	assert.False(t, out.IsTrade())
}

func TestDecodeSyncEventNeverPublishes(t *testing.T) {
	d := newDecoder(newResolver())
	ev := RawEvent{
		Chain:   "ethereum",
		TxHash:  "0xsync",
		Address: ethPair,
		Topics:  []string{chainrpc.TopicSync.Hex()},
		Data:    "0x" + uint256Words(1, 2),
	}

	out, err := d.Decode(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 0.3, out.DecodeConfidence)
	assert.False(t, out.ShouldPublish())
}

func TestDecodeMissingTxHashErrors(t *testing.T) {
	d := newDecoder(newResolver())
	_, err := d.Decode(context.Background(), RawEvent{Chain: "ethereum"})
	assert.Error(t, err)
}

func TestDecodePartialTokenResolutionLowersConfidence(t *testing.T) {
	resolver := &fakeResolver{tokens: map[string]string{
		"ethereum:" + ethPair + ":" + chainrpc.Token0Selector: token0,
	}}
	d := newDecoder(resolver)
	ev := RawEvent{
		Chain:   "ethereum",
		TxHash:  "0xpartial",
		Address: ethPair,
		Topics:  []string{chainrpc.TopicV2Swap.Hex(), topicWord(sender), topicWord(sender)},
		Data:    "0x" + uint256Words(0, 0, 10, 0),
	}

	out, err := d.Decode(context.Background(), ev)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, out.DecodeConfidence, 1e-9)
}
