package store

import "context"

func (s *Store) GetWalletMetric(ctx context.Context, chain, walletAddress string) (*WalletMetric, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT chain, wallet_address, total_value, pnl, updated_at
		FROM wallet_metrics WHERE chain = $1 AND wallet_address = $2`, chain, walletAddress)
	var m WalletMetric
	if err := row.Scan(&m.Chain, &m.WalletAddress, &m.TotalValue, &m.PnL, &m.UpdatedAt); err != nil {
		return nil, ignoreNoRows(err)
	}
	return &m, nil
}

// UpsertWalletMetric writes the Profiler's sole-writer summary. PnL is
// carried forward as 0 pending a real realized/unrealized PnL model.
func (s *Store) UpsertWalletMetric(ctx context.Context, chain, walletAddress string, totalValue float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallet_metrics (chain, wallet_address, total_value, pnl, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (chain, wallet_address) DO UPDATE SET
			total_value = EXCLUDED.total_value,
			pnl = 0,
			updated_at = now()`,
		chain, walletAddress, totalValue)
	return err
}
