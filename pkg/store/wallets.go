package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetWallet returns nil, nil when the wallet doesn't exist yet.
func (s *Store) GetWallet(ctx context.Context, chain, address string) (*Wallet, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT chain, address, source, prior_weight, merit_score, tier, tier_reason,
		       ignore_reason, created_at, updated_at
		FROM wallets WHERE chain = $1 AND address = $2`, chain, address)
	return scanWallet(row)
}

func (s *Store) IsWalletIgnored(ctx context.Context, chain, address string) (bool, error) {
	w, err := s.GetWallet(ctx, chain, address)
	if err != nil {
		return false, err
	}
	if w == nil {
		return false, nil
	}
	return w.IsIgnored(), nil
}

// UpsertWallet creates a wallet if absent (for autopilot/seed_pack
// discovery) or is a no-op if it already exists — wallets are mutated
// only by the Profiler and Merit worker per the invariant in §3.
func (s *Store) UpsertWallet(ctx context.Context, chain, address, source string, priorWeight float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallets (chain, address, source, prior_weight)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chain, address) DO NOTHING`,
		chain, address, source, priorWeight)
	return err
}

// UpdateWalletTier sets a wallet's tier column.
func (s *Store) UpdateWalletTier(ctx context.Context, chain, address, tier string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE wallets SET tier = $3, updated_at = now()
		WHERE chain = $1 AND address = $2`, chain, address, tier)
	return err
}

// UpdateWalletMerit persists the Merit worker's per-cycle update.
func (s *Store) UpdateWalletMerit(ctx context.Context, chain, address string, meritScore float64, tier *string, tierReason JSONMap) error {
	reasonBytes, err := json.Marshal(tierReason)
	if err != nil {
		return fmt.Errorf("marshaling tier_reason: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE wallets SET merit_score = $3, tier = $4, tier_reason = $5, updated_at = now()
		WHERE chain = $1 AND address = $2`, chain, address, meritScore, tier, reasonBytes)
	return err
}

func (s *Store) ListWalletsByTier(ctx context.Context, tier string, limit int) ([]Wallet, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain, address, source, prior_weight, merit_score, tier, tier_reason,
		       ignore_reason, created_at, updated_at
		FROM wallets WHERE tier = $1 ORDER BY merit_score DESC LIMIT $2`, tier, limit)
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

func (s *Store) ListHighMeritWallets(ctx context.Context, chain string, shadowToTitanThreshold float64) ([]Wallet, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain, address, source, prior_weight, merit_score, tier, tier_reason,
		       ignore_reason, created_at, updated_at
		FROM wallets
		WHERE chain = $1 AND (tier IN ('shadow', 'titan') OR merit_score >= $2)`,
		chain, shadowToTitanThreshold)
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

func (s *Store) ListAllWallets(ctx context.Context) ([]Wallet, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain, address, source, prior_weight, merit_score, tier, tier_reason,
		       ignore_reason, created_at, updated_at
		FROM wallets`)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWallet(row rowScanner) (*Wallet, error) {
	var w Wallet
	var tierReasonBytes []byte
	if err := row.Scan(&w.Chain, &w.Address, &w.Source, &w.PriorWeight, &w.MeritScore,
		&w.Tier, &tierReasonBytes, &w.IgnoreReason, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.TierReason = JSONMap{}
	if len(tierReasonBytes) > 0 {
		_ = json.Unmarshal(tierReasonBytes, &w.TierReason)
	}
	return &w, nil
}
