package store

import "context"

// UpsertPosition is the Profiler's get-or-create-then-update write,
// per §4.4: positions are recomputed wholesale each cycle.
func (s *Store) UpsertPosition(ctx context.Context, p Position) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO positions (chain, wallet_address, token_address, quantity, average_price, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (chain, wallet_address, token_address) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			average_price = EXCLUDED.average_price,
			updated_at = now()`,
		p.Chain, p.WalletAddress, p.TokenAddress, p.Quantity, p.AveragePrice)
	return err
}

func (s *Store) PositionsForWallet(ctx context.Context, chain, walletAddress string) ([]Position, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain, wallet_address, token_address, quantity, average_price, updated_at
		FROM positions WHERE chain = $1 AND wallet_address = $2`, chain, walletAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.Chain, &p.WalletAddress, &p.TokenAddress, &p.Quantity,
			&p.AveragePrice, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
