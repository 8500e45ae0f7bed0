package store

import "context"

func (s *Store) GetToken(ctx context.Context, chain, address string) (*Token, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT chain, address, symbol, name, decimals, updated_at
		FROM tokens WHERE chain = $1 AND address = $2`, chain, address)
	var t Token
	if err := row.Scan(&t.Chain, &t.Address, &t.Symbol, &t.Name, &t.Decimals, &t.UpdatedAt); err != nil {
		return nil, ignoreNoRows(err)
	}
	return &t, nil
}

func (s *Store) TokenKnown(ctx context.Context, chain, address string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tokens WHERE chain = $1 AND address = $2)`,
		chain, address).Scan(&exists)
	return exists, err
}

// UpsertToken updates the symbol/name/decimals cache "on first
// observation", per §3 — subsequent decodes don't overwrite a symbol
// that's already known with an empty one.
func (s *Store) UpsertToken(ctx context.Context, chain, address, symbol, name string, decimals int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (chain, address, symbol, name, decimals)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chain, address) DO UPDATE SET
			symbol = CASE WHEN tokens.symbol = '' THEN EXCLUDED.symbol ELSE tokens.symbol END,
			name = CASE WHEN tokens.name = '' THEN EXCLUDED.name ELSE tokens.name END,
			decimals = EXCLUDED.decimals,
			updated_at = now()`,
		chain, address, symbol, name, decimals)
	return err
}
