package store

import (
	"context"
	"encoding/json"
	"time"
)

func (s *Store) GetWatchPair(ctx context.Context, chain, pairAddress string) (*WatchPair, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT chain, pair_address, dex, token0_symbol, token0_address, token1_symbol,
		       token1_address, source, priority, score, reason, expires_at, last_seen
		FROM watch_pairs WHERE chain = $1 AND pair_address = $2`, chain, pairAddress)
	return scanWatchPair(row)
}

// ActiveWatchPairs returns active pairs for a chain ordered per the
// Listener's snapshot-population order (§4.1): priority desc, score
// desc, last_seen desc, capped.
func (s *Store) ActiveWatchPairs(ctx context.Context, chain string, now time.Time, limit int) ([]WatchPair, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain, pair_address, dex, token0_symbol, token0_address, token1_symbol,
		       token1_address, source, priority, score, reason, expires_at, last_seen
		FROM watch_pairs
		WHERE chain = $1 AND expires_at > $2
		ORDER BY priority DESC, score DESC, last_seen DESC NULLS LAST
		LIMIT $3`, chain, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WatchPair
	for rows.Next() {
		p, err := scanWatchPair(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ActiveAutopilotPairsRanked returns active autopilot-sourced pairs
// (seed_pack excluded) ranked for churn, per §4.8.
func (s *Store) ActiveAutopilotPairsRanked(ctx context.Context, chain string, now time.Time) ([]WatchPair, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain, pair_address, dex, token0_symbol, token0_address, token1_symbol,
		       token1_address, source, priority, score, reason, expires_at, last_seen
		FROM watch_pairs
		WHERE chain = $1 AND source = 'autopilot' AND expires_at > $2
		ORDER BY priority DESC, last_seen DESC NULLS LAST`, chain, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WatchPair
	for rows.Next() {
		p, err := scanWatchPair(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) UpsertWatchPairFromFeed(ctx context.Context, p WatchPair) error {
	reasonBytes, err := json.Marshal(p.Reason)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO watch_pairs (chain, pair_address, dex, token0_symbol, token0_address,
			token1_symbol, token1_address, source, priority, score, reason, expires_at, last_seen)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (chain, pair_address) DO UPDATE SET
			dex = CASE WHEN EXCLUDED.dex <> '' THEN EXCLUDED.dex ELSE watch_pairs.dex END,
			token0_symbol = CASE WHEN EXCLUDED.token0_symbol <> '' THEN EXCLUDED.token0_symbol ELSE watch_pairs.token0_symbol END,
			token0_address = CASE WHEN EXCLUDED.token0_address <> '' THEN EXCLUDED.token0_address ELSE watch_pairs.token0_address END,
			token1_symbol = CASE WHEN EXCLUDED.token1_symbol <> '' THEN EXCLUDED.token1_symbol ELSE watch_pairs.token1_symbol END,
			token1_address = CASE WHEN EXCLUDED.token1_address <> '' THEN EXCLUDED.token1_address ELSE watch_pairs.token1_address END,
			priority = EXCLUDED.priority,
			expires_at = EXCLUDED.expires_at,
			last_seen = EXCLUDED.last_seen,
			source = CASE WHEN watch_pairs.source = 'seed_pack' THEN watch_pairs.source ELSE 'autopilot' END`,
		p.Chain, p.PairAddress, p.Dex, p.Token0Symbol, p.Token0Address, p.Token1Symbol,
		p.Token1Address, p.Source, p.Priority, p.Score, reasonBytes, p.ExpiresAt, p.LastSeen)
	return err
}

// DemotePair forces the pair out of the active set without ever
// touching seed_pack rows — callers must only pass autopilot-sourced
// pairs, which ActiveAutopilotPairsRanked already guarantees.
func (s *Store) DemotePair(ctx context.Context, chain, pairAddress string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE watch_pairs SET expires_at = $3, priority = LEAST(priority, 0)
		WHERE chain = $1 AND pair_address = $2 AND source = 'autopilot'`,
		chain, pairAddress, now)
	return err
}

func scanWatchPair(row rowScanner) (*WatchPair, error) {
	var p WatchPair
	var reasonBytes []byte
	if err := row.Scan(&p.Chain, &p.PairAddress, &p.Dex, &p.Token0Symbol, &p.Token0Address,
		&p.Token1Symbol, &p.Token1Address, &p.Source, &p.Priority, &p.Score, &reasonBytes,
		&p.ExpiresAt, &p.LastSeen); err != nil {
		return nil, err
	}
	p.Reason = JSONMap{}
	if len(reasonBytes) > 0 {
		_ = json.Unmarshal(reasonBytes, &p.Reason)
	}
	return &p, nil
}
