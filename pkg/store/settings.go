package store

import (
	"context"
	"encoding/json"
)

// GetSetting/PutSetting back the query API's tuning store
// (get/put/preview, §6). PutSetting doesn't apply the value anywhere
// by itself — "preview" composes GetSetting plus the caller's own
// dry-run evaluation; the store has no opinion on what a setting means.
func (s *Store) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		return nil, ignoreNoRows(err)
	}
	return value, nil
}

func (s *Store) PutSetting(ctx context.Context, key string, value json.RawMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings_store (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}

func (s *Store) ListSettings(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM settings_store`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}
