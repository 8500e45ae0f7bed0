package chainrpc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// The three canonical event signatures the Decoder dispatches on,
// keccak-256'd once at package init rather than hand-rolled — the
// original computes these with a from-scratch Keccak implementation
// purely so a reference script has no dependencies; go-ethereum's
// crypto package is already the chain client for this repo, so reusing
// it here is the only idiomatic choice.
var (
	SigV2Swap = "Swap(address,uint256,uint256,uint256,uint256,address)"
	SigSync   = "Sync(uint112,uint112)"
	SigV3Swap = "Swap(address,address,int256,int256,uint160,uint128,int24)"

	TopicV2Swap = crypto.Keccak256Hash([]byte(SigV2Swap))
	TopicSync   = crypto.Keccak256Hash([]byte(SigSync))
	TopicV3Swap = crypto.Keccak256Hash([]byte(SigV3Swap))
)

// Token0Selector / Token1Selector are the 4-byte function selectors
// the Decoder calls to resolve a pool's underlying tokens.
const (
	Token0Selector = "0x0dfe1681"
	Token1Selector = "0xd21220a7"
)

func TopicForDex(topic common.Hash) (string, bool) {
	switch topic {
	case TopicV2Swap:
		return "v2_swap", true
	case TopicSync:
		return "sync", true
	case TopicV3Swap:
		return "v3_swap", true
	default:
		return "", false
	}
}
