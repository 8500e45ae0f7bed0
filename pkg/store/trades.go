package store

import (
	"context"
	"time"
)

// UpsertTrade is idempotent by primary key (chain, tx_hash, log_index)
// — the decoder's republish-on-retry path must not create duplicates.
func (s *Store) UpsertTrade(ctx context.Context, t Trade) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trades (chain, tx_hash, log_index, wallet_address, token_address, side,
			amount, price, usd_value, block_number, block_time, dex, pair_address,
			decode_confidence, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (chain, tx_hash, log_index) DO UPDATE SET
			wallet_address = EXCLUDED.wallet_address,
			token_address = EXCLUDED.token_address,
			side = EXCLUDED.side,
			amount = EXCLUDED.amount,
			price = EXCLUDED.price,
			usd_value = EXCLUDED.usd_value,
			block_number = EXCLUDED.block_number,
			block_time = EXCLUDED.block_time,
			dex = EXCLUDED.dex,
			pair_address = EXCLUDED.pair_address,
			decode_confidence = EXCLUDED.decode_confidence`,
		t.Chain, t.TxHash, t.LogIndex, t.WalletAddress, t.TokenAddress, t.Side,
		t.Amount, t.Price, t.USDValue, t.BlockNumber, t.BlockTime, t.Dex, t.PairAddress,
		t.DecodeConfidence, t.CreatedAt)
	return err
}

// AllWalletTrades loads every trade with a non-null wallet, for the
// Profiler's full-refresh accounting. Sorting happens client-side in
// pkg/profiler to keep the exact tie-break rule (§4.4) explicit and
// testable independent of SQL collation.
func (s *Store) AllWalletTrades(ctx context.Context) ([]Trade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain, tx_hash, log_index, wallet_address, token_address, side, amount,
		       price, usd_value, block_number, block_time, dex, pair_address,
		       decode_confidence, created_at
		FROM trades WHERE wallet_address IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

// TradesInWindow loads decode_confidence>=0.6 priced trades on a token
// (optionally narrowed to a pair) within [start, end], for the
// Outcomes worker's price series, oldest first.
func (s *Store) TradesInWindow(ctx context.Context, chain, tokenAddress string, pairAddress *string, start, end time.Time) ([]Trade, error) {
	var rows pgxRows
	var err error
	if pairAddress != nil && *pairAddress != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT chain, tx_hash, log_index, wallet_address, token_address, side, amount,
			       price, usd_value, block_number, block_time, dex, pair_address,
			       decode_confidence, created_at
			FROM trades
			WHERE chain = $1 AND token_address = $2 AND pair_address = $3
			  AND block_time >= $4 AND block_time <= $5
			  AND decode_confidence >= 0.6 AND price IS NOT NULL AND price > 0
			ORDER BY block_time ASC`, chain, tokenAddress, *pairAddress, start, end)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT chain, tx_hash, log_index, wallet_address, token_address, side, amount,
			       price, usd_value, block_number, block_time, dex, pair_address,
			       decode_confidence, created_at
			FROM trades
			WHERE chain = $1 AND token_address = $2
			  AND block_time >= $3 AND block_time <= $4
			  AND decode_confidence >= 0.6 AND price IS NOT NULL AND price > 0
			ORDER BY block_time ASC`, chain, tokenAddress, start, end)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

// RecentBuys loads buy-side trades created within the lookback window,
// newest first, for the Alerts worker's scan.
func (s *Store) RecentBuys(ctx context.Context, since time.Time) ([]Trade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain, tx_hash, log_index, wallet_address, token_address, side, amount,
		       price, usd_value, block_number, block_time, dex, pair_address,
		       decode_confidence, created_at
		FROM trades
		WHERE side = 'buy' AND created_at >= $1
		ORDER BY created_at DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

// AvgNetReturnForToken averages net_tradeable_return_est over valid
// outcomes for (chain, token), for the NetEV gate's expected-move input.
func (s *Store) AvgNetReturnForToken(ctx context.Context, chain, tokenAddress string) (float64, int, error) {
	var avg *float64
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT AVG(so.net_tradeable_return_est), COUNT(*)
		FROM signal_outcomes so
		JOIN alerts a ON a.id = so.alert_id
		WHERE a.chain = $1 AND a.token_address = $2
		  AND so.was_sellable_entire_window = true AND so.trap_flag = false
		  AND so.net_tradeable_return_est IS NOT NULL`, chain, tokenAddress).Scan(&avg, &n)
	if err != nil {
		return 0, 0, err
	}
	if avg == nil {
		return 0, 0, nil
	}
	return *avg, n, nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

func scanTrades(rows pgxRows) ([]Trade, error) {
	var out []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.Chain, &t.TxHash, &t.LogIndex, &t.WalletAddress, &t.TokenAddress,
			&t.Side, &t.Amount, &t.Price, &t.USDValue, &t.BlockNumber, &t.BlockTime, &t.Dex,
			&t.PairAddress, &t.DecodeConfidence, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
