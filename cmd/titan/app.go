package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/titan-signal/titan/pkg/chainrpc"
	"github.com/titan-signal/titan/pkg/config"
	"github.com/titan-signal/titan/pkg/httpx"
	"github.com/titan-signal/titan/pkg/netev"
	"github.com/titan-signal/titan/pkg/risk"
	"github.com/titan-signal/titan/pkg/store"
	"github.com/titan-signal/titan/pkg/streambus"
)

// app bundles the shared collaborators every subcommand wires its own
// worker on top of, built once per process from the loaded config.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *store.Store
	bus   *streambus.Bus
	http  *httpx.Client

	rpcClients map[string]*chainrpc.Client
	dex        *risk.DexScreenerClient
	goplus     *risk.GoPlusClient
}

func newApp(ctx context.Context, log zerolog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	st, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	bus, err := streambus.New(cfg.RedisURL)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	httpClient := httpx.New(httpx.Config{
		Timeout:         time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		RetryAttempts:   cfg.HTTPRetryAttempts,
		BreakerFailures: uint32(cfg.CircuitBreakerFailures),
		BreakerCooldown: cfg.CircuitBreakerCooldown,
		Name:            "titan",
	})

	rpcClients := map[string]*chainrpc.Client{}
	for chain, cc := range cfg.ChainConfig {
		if cc.RPCHTTP == "" {
			continue
		}
		client, err := chainrpc.Dial(ctx, cc.RPCHTTP)
		if err != nil {
			log.Warn().Err(err).Str("chain", string(chain)).Msg("rpc dial failed, chain runs degraded")
			continue
		}
		rpcClients[string(chain)] = client
	}

	return &app{
		cfg:        cfg,
		log:        log,
		store:      st,
		bus:        bus,
		http:       httpClient,
		rpcClients: rpcClients,
		dex:        risk.NewDexScreenerClient(httpClient, cfg.DexScreenerBaseURL),
		goplus:     risk.NewGoPlusClient(httpClient, cfg.GoPlusBaseURL),
	}, nil
}

func (a *app) close() {
	for _, c := range a.rpcClients {
		c.Close()
	}
	if err := a.bus.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing redis")
	}
	a.store.Close()
}

func (a *app) gasCostEstimator() *netev.GasCostEstimator {
	prices := netev.NewCoinGeckoPriceFetcher(a.http, a.cfg.CoinGeckoBaseURL)
	return netev.NewGasCostEstimator(a.store, a.rpcClients, prices, func(chain string) float64 {
		return a.cfg.NetEV[config.Chain(chain)].DefaultGasCostUSD
	})
}
