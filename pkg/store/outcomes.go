package store

import "context"

// InsertSignalOutcome is the Outcomes worker's sole write, unique on
// (alert_id, horizon_minutes) — re-evaluating an alert that already
// has an outcome at a horizon is prevented upstream by
// AlertsEligibleForHorizon's NOT EXISTS filter, making this a pure
// insert rather than an upsert.
func (s *Store) InsertSignalOutcome(ctx context.Context, o SignalOutcome) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO signal_outcomes (alert_id, horizon_minutes, was_sellable_entire_window,
			min_exit_slippage_1k, max_exit_slippage_1k, tradeable_peak_gain,
			exit_feasible_peak_gain, exit_feasible_peak_time, tradeable_drawdown,
			net_tradeable_return_est, trap_flag, evaluated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (alert_id, horizon_minutes) DO NOTHING`,
		o.AlertID, o.HorizonMinutes, o.WasSellableEntireWindow, o.MinExitSlippage1k,
		o.MaxExitSlippage1k, o.TradeablePeakGain, o.ExitFeasiblePeakGain,
		o.ExitFeasiblePeakTime, o.TradeableDrawdown, o.NetTradeableReturnEst,
		o.TrapFlag, o.EvaluatedAt)
	return err
}

type OutcomeHorizonAvg struct {
	HorizonMinutes int
	AvgNetReturn   float64
	Count          int
}

func (s *Store) AvgNetReturnByHorizon(ctx context.Context) ([]OutcomeHorizonAvg, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT horizon_minutes, AVG(net_tradeable_return_est), COUNT(*)
		FROM signal_outcomes
		WHERE net_tradeable_return_est IS NOT NULL
		GROUP BY horizon_minutes ORDER BY horizon_minutes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeHorizonAvg
	for rows.Next() {
		var h OutcomeHorizonAvg
		if err := rows.Scan(&h.HorizonMinutes, &h.AvgNetReturn, &h.Count); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) TrapRate(ctx context.Context) (float64, error) {
	var rate *float64
	err := s.pool.QueryRow(ctx, `
		SELECT AVG(CASE WHEN trap_flag THEN 1.0 ELSE 0.0 END) FROM signal_outcomes`).Scan(&rate)
	if err != nil {
		return 0, err
	}
	if rate == nil {
		return 0, nil
	}
	return *rate, nil
}
