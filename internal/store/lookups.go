package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SaveLookup replaces the stored snapshot of one lookup kind.
func (s *Store) SaveLookup(ctx context.Context, kind string, entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode lookup %s: %w", kind, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO lookup_snapshots (kind, entries, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (kind) DO UPDATE SET entries = EXCLUDED.entries, updated_at = EXCLUDED.updated_at`,
		kind, data,
	)
	if err != nil {
		return fmt.Errorf("save lookup %s: %w", kind, err)
	}
	return nil
}

// LoadLookup returns the stored snapshot of one lookup kind.
func (s *Store) LoadLookup(ctx context.Context, kind string) (map[string]string, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT entries FROM lookup_snapshots WHERE kind = $1`, kind).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLookupNotFound, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load lookup %s: %w", kind, err)
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode lookup %s: %w", kind, err)
	}
	return entries, nil
}
