package chainrpc

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps an HTTP ethclient for eth_call and receipt lookups, the
// Go-native replacement for the teacher's hand-rolled
// rpcCall/rpcRequest/rpcResponse JSON-RPC plumbing in
// pkg/scanner/rpc.go — go-ethereum already speaks this protocol and
// was already a declared (if previously unused) teacher dependency.
type Client struct {
	rpc *ethclient.Client
}

func Dial(ctx context.Context, httpURL string) (*Client, error) {
	c, err := ethclient.DialContext(ctx, httpURL)
	if err != nil {
		return nil, fmt.Errorf("dialing rpc %s: %w", httpURL, err)
	}
	return &Client{rpc: c}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// CallAddressSelector issues an eth_call against a contract with a
// bare 4-byte selector (no arguments) and decodes the 32-byte return
// as a left-padded address — exactly the token0()/token1() shape the
// Decoder needs.
func (c *Client) CallAddressSelector(ctx context.Context, contract, selector string) (string, error) {
	data, err := hexDecode(selector)
	if err != nil {
		return "", fmt.Errorf("decoding selector %s: %w", selector, err)
	}
	to := common.HexToAddress(contract)
	result, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return "", err
	}
	if len(result) < 32 {
		return "", fmt.Errorf("short eth_call result for %s/%s: %d bytes", contract, selector, len(result))
	}
	addr := common.BytesToAddress(result[len(result)-20:])
	return strings.ToLower(addr.Hex()), nil
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	return c.rpc.TransactionReceipt(ctx, common.HexToHash(txHash))
}

func (c *Client) BlockTime(ctx context.Context, blockNumber *big.Int) (uint64, error) {
	header, err := c.rpc.HeaderByNumber(ctx, blockNumber)
	if err != nil {
		return 0, err
	}
	return header.Time, nil
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
