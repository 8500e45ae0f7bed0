package store

import (
	"context"
	"encoding/json"
	"time"
)

func (s *Store) InsertAlert(ctx context.Context, a Alert) (int64, error) {
	reasonsBytes, err := json.Marshal(a.Reasons)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO alerts (chain, wallet_address, token_address, alert_type, tss, conviction,
			reasons, narrative, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`,
		a.Chain, a.WalletAddress, a.TokenAddress, a.AlertType, a.TSS, a.Conviction,
		reasonsBytes, a.Narrative, a.CreatedAt).Scan(&id)
	return id, err
}

// LatestAlert returns the most recent alert of a type for a
// (chain, wallet, token) key within a cooldown window, or nil.
func (s *Store) LatestAlert(ctx context.Context, chain string, wallet, token *string, alertType string, since time.Time) (*Alert, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, chain, wallet_address, token_address, alert_type, tss, conviction, reasons,
		       narrative, created_at
		FROM alerts
		WHERE chain = $1 AND alert_type = $2 AND created_at >= $3
		  AND wallet_address IS NOT DISTINCT FROM $4 AND token_address IS NOT DISTINCT FROM $5
		ORDER BY created_at DESC LIMIT 1`,
		chain, alertType, since, wallet, token)
	a, err := scanAlert(row)
	if err != nil {
		return nil, ignoreNoRows(err)
	}
	return a, nil
}

// LatestWalletTierAlert implements the Profiler's tier-alert dedup
// lookup (§4.4): the last wallet_tier alert for the wallet in the last
// hour, regardless of which tier it names — the caller decides whether
// its reasons.tier matches.
func (s *Store) LatestWalletTierAlert(ctx context.Context, chain, wallet string, since time.Time) (*Alert, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, chain, wallet_address, token_address, alert_type, tss, conviction, reasons,
		       narrative, created_at
		FROM alerts
		WHERE chain = $1 AND wallet_address = $2 AND alert_type = 'wallet_tier' AND created_at >= $3
		ORDER BY created_at DESC LIMIT 1`, chain, wallet, since)
	a, err := scanAlert(row)
	if err != nil {
		return nil, ignoreNoRows(err)
	}
	return a, nil
}

func (s *Store) AlertsEligibleForHorizon(ctx context.Context, cutoff time.Time, horizonMinutes int, limit int) ([]Alert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.chain, a.wallet_address, a.token_address, a.alert_type, a.tss,
		       a.conviction, a.reasons, a.narrative, a.created_at
		FROM alerts a
		WHERE a.created_at <= $1
		  AND NOT EXISTS (
		      SELECT 1 FROM signal_outcomes so
		      WHERE so.alert_id = a.id AND so.horizon_minutes = $2
		  )
		ORDER BY a.created_at ASC
		LIMIT $3`, cutoff, horizonMinutes, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) ListAlerts(ctx context.Context, chain string, limit, offset int) ([]Alert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chain, wallet_address, token_address, alert_type, tss, conviction, reasons,
		       narrative, created_at
		FROM alerts
		WHERE ($1 = '' OR chain = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, chain, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) GetAlert(ctx context.Context, id int64) (*Alert, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, chain, wallet_address, token_address, alert_type, tss, conviction, reasons,
		       narrative, created_at
		FROM alerts WHERE id = $1`, id)
	a, err := scanAlert(row)
	if err != nil {
		return nil, ignoreNoRows(err)
	}
	return a, nil
}

func scanAlert(row rowScanner) (*Alert, error) {
	var a Alert
	var reasonsBytes []byte
	if err := row.Scan(&a.ID, &a.Chain, &a.WalletAddress, &a.TokenAddress, &a.AlertType,
		&a.TSS, &a.Conviction, &reasonsBytes, &a.Narrative, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Reasons = JSONMap{}
	if len(reasonsBytes) > 0 {
		_ = json.Unmarshal(reasonsBytes, &a.Reasons)
	}
	return &a, nil
}
