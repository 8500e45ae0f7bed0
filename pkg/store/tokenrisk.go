package store

import (
	"context"
	"encoding/json"
)

func (s *Store) GetTokenRisk(ctx context.Context, chain, address string) (*TokenRisk, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT chain, address, score, tss, flags, components, updated_at
		FROM token_risk WHERE chain = $1 AND address = $2`, chain, address)
	var tr TokenRisk
	var flagsBytes, componentsBytes []byte
	if err := row.Scan(&tr.Chain, &tr.Address, &tr.Score, &tr.TSS, &flagsBytes,
		&componentsBytes, &tr.UpdatedAt); err != nil {
		return nil, ignoreNoRows(err)
	}
	_ = json.Unmarshal(flagsBytes, &tr.Flags)
	tr.Components = JSONMap{}
	if len(componentsBytes) > 0 {
		_ = json.Unmarshal(componentsBytes, &tr.Components)
	}
	return &tr, nil
}

// UpsertTokenRisk writes the Risk worker's sole-writer output,
// appending the new snapshot onto components.history so the Outcomes
// worker can later reconstruct a risk window (§4.7).
func (s *Store) UpsertTokenRisk(ctx context.Context, tr TokenRisk) error {
	flagsBytes, err := json.Marshal(tr.Flags)
	if err != nil {
		return err
	}
	componentsBytes, err := json.Marshal(tr.Components)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO token_risk (chain, address, score, tss, flags, components, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (chain, address) DO UPDATE SET
			score = EXCLUDED.score,
			tss = EXCLUDED.tss,
			flags = EXCLUDED.flags,
			components = EXCLUDED.components,
			updated_at = now()`,
		tr.Chain, tr.Address, tr.Score, tr.TSS, flagsBytes, componentsBytes)
	return err
}
