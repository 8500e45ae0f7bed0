package decode

import (
	"context"
	"fmt"
	"time"

	"github.com/titan-signal/titan/pkg/chainrpc"
	"github.com/titan-signal/titan/pkg/streambus"
)

// TokenLookupTTL matches the six-hour cache window pool token
// addresses are held for — they never change post-deploy, so a long
// TTL just saves eth_call round trips.
const TokenLookupTTL = 6 * time.Hour

// CachedResolver satisfies TokenResolver by checking the bus cache
// before falling back to a live eth_call per chain.
type CachedResolver struct {
	bus     *streambus.Bus
	clients map[string]*chainrpc.Client
}

func NewCachedResolver(bus *streambus.Bus, clients map[string]*chainrpc.Client) *CachedResolver {
	return &CachedResolver{bus: bus, clients: clients}
}

func (r *CachedResolver) PoolToken(ctx context.Context, chain, pairAddress, selector string) (string, error) {
	cacheKey := fmt.Sprintf("decode:token_lookup:%s:%s:%s", chain, pairAddress, selector)
	if cached, ok, err := r.bus.CacheGet(ctx, cacheKey); err == nil && ok {
		return cached, nil
	}

	client, ok := r.clients[chain]
	if !ok {
		return "", fmt.Errorf("no rpc client configured for chain %s", chain)
	}
	token, err := client.CallAddressSelector(ctx, pairAddress, selector)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", nil
	}
	_ = r.bus.CacheSet(ctx, cacheKey, token, TokenLookupTTL)
	return token, nil
}
