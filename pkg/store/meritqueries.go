package store

import (
	"context"
	"time"
)

// WalletOutcomeStats is the valid-outcome aggregate one wallet's
// alerts produced: sample size, positive count, and average return,
// restricted to outcomes that were sellable the entire window,
// weren't traps, and have a non-null return estimate.
type WalletOutcomeStats struct {
	SampleSize    int
	PositiveCount int
	AvgReturn     float64
}

func (s *Store) WalletOutcomeStats(ctx context.Context, chain, walletAddress string) (WalletOutcomeStats, error) {
	var stats WalletOutcomeStats
	var avg *float64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(so.id),
		       COALESCE(SUM(CASE WHEN so.net_tradeable_return_est > 0 THEN 1 ELSE 0 END), 0),
		       AVG(so.net_tradeable_return_est)
		FROM signal_outcomes so
		JOIN alerts a ON a.id = so.alert_id
		WHERE a.chain = $1 AND a.wallet_address = $2
		  AND so.was_sellable_entire_window = true AND so.trap_flag = false
		  AND so.net_tradeable_return_est IS NOT NULL`, chain, walletAddress).
		Scan(&stats.SampleSize, &stats.PositiveCount, &avg)
	if err != nil {
		return stats, err
	}
	if avg != nil {
		stats.AvgReturn = *avg
	}
	return stats, nil
}

// OutcomeRow is one valid outcome attributed to a wallet's alert, the
// raw material the merit engine's per-outcome contribution math folds
// over.
type OutcomeRow struct {
	AlertID       int64
	TokenAddress  string
	AlertCreatedAt time.Time
	NetReturn     float64
}

func (s *Store) WalletValidOutcomes(ctx context.Context, chain, walletAddress string) ([]OutcomeRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.token_address, a.created_at, so.net_tradeable_return_est
		FROM alerts a
		JOIN signal_outcomes so ON so.alert_id = a.id
		WHERE a.chain = $1 AND a.wallet_address = $2
		  AND so.was_sellable_entire_window = true AND so.trap_flag = false
		  AND so.net_tradeable_return_est IS NOT NULL
		ORDER BY a.created_at ASC`, chain, walletAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var r OutcomeRow
		var token *string
		if err := rows.Scan(&r.AlertID, &token, &r.AlertCreatedAt, &r.NetReturn); err != nil {
			return nil, err
		}
		if token == nil {
			continue
		}
		r.TokenAddress = *token
		out = append(out, r)
	}
	return out, rows.Err()
}

// FirstSeenRank returns the addresses of every wallet that has ever
// alerted on token and is currently "high merit" (tier in shadow/titan,
// or merit score above the shadow-to-titan threshold), ordered by each
// wallet's earliest alert on the token, earliest first — the basis for
// the earliness rank a contribution is weighted by.
func (s *Store) FirstSeenRank(ctx context.Context, chain, token string, shadowToTitanThreshold float64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.wallet_address, MIN(a.created_at) AS first_seen
		FROM alerts a
		JOIN wallets w ON w.chain = a.chain AND w.address = a.wallet_address
		WHERE a.chain = $1 AND a.token_address = $2
		  AND (w.tier IN ('shadow', 'titan') OR w.merit_score >= $3)
		GROUP BY a.wallet_address
		ORDER BY first_seen ASC`, chain, token, shadowToTitanThreshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var wallet string
		var firstSeen time.Time
		if err := rows.Scan(&wallet, &firstSeen); err != nil {
			return nil, err
		}
		out = append(out, wallet)
	}
	return out, rows.Err()
}

// CrowdCount counts distinct high-merit wallets that alerted on token
// within [start, end].
func (s *Store) CrowdCount(ctx context.Context, chain, token string, start, end time.Time, shadowToTitanThreshold float64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT a.wallet_address)
		FROM alerts a
		JOIN wallets w ON w.chain = a.chain AND w.address = a.wallet_address
		WHERE a.chain = $1 AND a.token_address = $2
		  AND a.created_at >= $3 AND a.created_at <= $4
		  AND (w.tier IN ('shadow', 'titan') OR w.merit_score >= $5)`,
		chain, token, start, end, shadowToTitanThreshold).Scan(&count)
	return count, err
}

// SameBlockDensity counts distinct wallets (any tier) that alerted on
// token within [start, end], the copycat-burst proxy used when the
// wallet's tier_reason doesn't already carry a known score.
func (s *Store) SameBlockDensity(ctx context.Context, chain, token string, start, end time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT wallet_address)
		FROM alerts
		WHERE chain = $1 AND token_address = $2 AND created_at >= $3 AND created_at <= $4`,
		chain, token, start, end).Scan(&count)
	return count, err
}
