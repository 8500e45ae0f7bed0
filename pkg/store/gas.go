package store

import (
	"context"
	"time"
)

// RecordGasObservation is a get-or-create-then-refresh write, matching
// the source's `_record_observation` (cost_model.py): it upserts the
// raw observation, then the caller refreshes the rolling estimate from
// the last hour of observations.
func (s *Store) RecordGasObservation(ctx context.Context, o GasCostObservation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO gas_cost_observations (chain, tx_hash, gas_used, effective_gas_price_wei,
			native_price_usd, gas_cost_usd, observed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (chain, tx_hash) DO UPDATE SET
			gas_used = EXCLUDED.gas_used,
			effective_gas_price_wei = EXCLUDED.effective_gas_price_wei,
			native_price_usd = EXCLUDED.native_price_usd,
			gas_cost_usd = EXCLUDED.gas_cost_usd,
			observed_at = EXCLUDED.observed_at`,
		o.Chain, o.TxHash, o.GasUsed, o.EffectiveGasPriceWei, o.NativePriceUSD, o.GasCostUSD,
		o.ObservedAt)
	return err
}

// GasObservationsLastHour feeds the avg/p95 refresh in pkg/netev.
func (s *Store) GasObservationsLastHour(ctx context.Context, chain string, now time.Time) ([]float64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT gas_cost_usd FROM gas_cost_observations
		WHERE chain = $1 AND observed_at >= $2
		ORDER BY gas_cost_usd ASC`, chain, now.Add(-time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) UpsertChainGasEstimate(ctx context.Context, e ChainGasEstimate) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chain_gas_estimates (chain, avg_gas_usd_1h, p95_gas_usd_1h, sample_count, updated_at)
		VALUES ($1,$2,$3,$4,now())
		ON CONFLICT (chain) DO UPDATE SET
			avg_gas_usd_1h = EXCLUDED.avg_gas_usd_1h,
			p95_gas_usd_1h = EXCLUDED.p95_gas_usd_1h,
			sample_count = EXCLUDED.sample_count,
			updated_at = now()`,
		e.Chain, e.AvgGasUSD1h, e.P95GasUSD1h, e.SampleCount)
	return err
}

func (s *Store) GetChainGasEstimate(ctx context.Context, chain string) (*ChainGasEstimate, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT chain, avg_gas_usd_1h, p95_gas_usd_1h, sample_count, updated_at
		FROM chain_gas_estimates WHERE chain = $1`, chain)
	var e ChainGasEstimate
	if err := row.Scan(&e.Chain, &e.AvgGasUSD1h, &e.P95GasUSD1h, &e.SampleCount, &e.UpdatedAt); err != nil {
		return nil, ignoreNoRows(err)
	}
	return &e, nil
}
