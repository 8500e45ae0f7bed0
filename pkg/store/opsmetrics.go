package store

import "context"

// AlertsByRegime groups alert counts by the reasons.regime field the
// Alerts worker stamps on trade_conviction alerts; alerts with no
// regime key are bucketed under "unknown".
func (s *Store) AlertsByRegime(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(reasons->>'regime', 'unknown') AS regime, COUNT(*)
		FROM alerts
		GROUP BY regime`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var regime string
		var count int
		if err := rows.Scan(&regime, &count); err != nil {
			return nil, err
		}
		out[regime] = count
	}
	return out, rows.Err()
}

// TopWalletsByMerit is the ops dashboard's wallet leaderboard, chain
// filter optional ("" = every chain).
func (s *Store) TopWalletsByMerit(ctx context.Context, chain string, limit int) ([]Wallet, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain, address, source, prior_weight, merit_score, tier, tier_reason,
		       ignore_reason, created_at, updated_at
		FROM wallets
		WHERE ($1 = '' OR chain = $1)
		ORDER BY merit_score DESC
		LIMIT $2`, chain, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// TopPairRow is one watch pair ranked by trade count for the ops
// dashboard.
type TopPairRow struct {
	Chain       string
	PairAddress string
	TradeCount  int
}

func (s *Store) TopPairsByTradeCount(ctx context.Context, limit int) ([]TopPairRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain, pair_address, COUNT(*) AS trade_count
		FROM trades
		WHERE pair_address IS NOT NULL
		GROUP BY chain, pair_address
		ORDER BY trade_count DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopPairRow
	for rows.Next() {
		var r TopPairRow
		if err := rows.Scan(&r.Chain, &r.PairAddress, &r.TradeCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
