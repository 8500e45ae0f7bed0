package main

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/titan-signal/titan/pkg/chainrpc"
	"github.com/titan-signal/titan/pkg/streambus"
)

var listenTopics = []common.Hash{chainrpc.TopicV2Swap, chainrpc.TopicV3Swap, chainrpc.TopicSync}

func newListenCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "subscribe to swap/sync logs on every configured chain and publish raw events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootContext()
			defer cancel()

			a, err := newApp(ctx, log.With().Str("cmd", "listen").Logger())
			if err != nil {
				return err
			}
			defer a.close()

			go a.bus.Heartbeat(ctx, "listener")

			g, gctx := errgroup.WithContext(ctx)
			for chain, cc := range a.cfg.ChainConfig {
				if cc.RPCWS == "" {
					a.log.Warn().Str("chain", string(chain)).Msg("no rpc_ws configured, chain not listened to")
					continue
				}
				chain, wsURL := string(chain), cc.RPCWS
				g.Go(func() error {
					return runChainListener(gctx, a, chain, wsURL)
				})
			}
			if err := g.Wait(); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func runChainListener(ctx context.Context, a *app, chain, wsURL string) error {
	handler := func(ctx context.Context, l types.Log) error {
		return a.bus.Publish(ctx, streambus.StreamRawEvents, rawEventFields(chain, l))
	}
	listener := chainrpc.NewListener(wsURL, chain, listenTopics, handler, a.log)
	if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
		a.log.Error().Err(err).Str("chain", chain).Msg("listener exited")
		return err
	}
	return nil
}

func rawEventFields(chain string, l types.Log) map[string]interface{} {
	topics := make([]string, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = strings.ToLower(t.Hex())
	}
	return map[string]interface{}{
		"chain":        chain,
		"tx_hash":      strings.ToLower(l.TxHash.Hex()),
		"log_index":    l.Index,
		"block_number": l.BlockNumber,
		"address":      strings.ToLower(l.Address.Hex()),
		"topics":       topics,
		"data":         "0x" + common.Bytes2Hex(l.Data),
	}
}
