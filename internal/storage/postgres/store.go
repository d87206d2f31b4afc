package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"yieldScope/internal/bundle"
	"yieldScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS response_cache (
	key TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS bundles (
	bundle_hash TEXT PRIMARY KEY,
	address TEXT NOT NULL,
	created_utc TIMESTAMPTZ NOT NULL,
	body JSONB NOT NULL,
	stored_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_bundles_address ON bundles (address, created_utc DESC);
CREATE TABLE IF NOT EXISTS bundle_events (
	bundle_hash TEXT NOT NULL REFERENCES bundles (bundle_hash) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	bucket TEXT NOT NULL,
	kind TEXT NOT NULL,
	tx_hash TEXT NOT NULL,
	slot BIGINT,
	body JSONB NOT NULL,
	PRIMARY KEY (bundle_hash, seq)
);
`

// Store provides Postgres persistence for cached responses and archived bundles.
// It satisfies cache.Store.
type Store struct {
	pool *pgxpool.Pool

	schemaOnce sync.Once
	schemaErr  error
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables used by the store when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		if _, err := s.pool.Exec(ctx, schema); err != nil {
			s.schemaErr = fmt.Errorf("ensure schema: %w", err)
		}
	})
	return s.schemaErr
}

// Get returns the cached body for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	row := s.pool.QueryRow(ctx, `SELECT value FROM response_cache WHERE key=$1`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return value, true, nil
}

// Set upserts the cached body for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO response_cache (key, value, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, created_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// SaveBundle archives a bundle under its hash together with one row per event.
// Saving the same bundle twice is a no-op.
func (s *Store) SaveBundle(ctx context.Context, hash string, b bundle.Bundle) error {
	if hash == "" {
		return fmt.Errorf("bundle hash required")
	}
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	type row struct {
		bucket string
		body   []byte
		kind   string
		tx     string
		slot   *int64
	}
	var rows []row
	buckets := []struct {
		name   string
		events []model.Event
	}{
		{"stability_pool", b.Events.StabilityPool},
		{"rob", b.Events.Rob},
		{"indy_staking", b.Events.IndyStaking},
		{"other", b.Events.Other},
	}
	for _, bucket := range buckets {
		for _, ev := range bucket.events {
			data, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("marshal event %s: %w", ev.TxHash, err)
			}
			var slot *int64
			if ev.Slot != nil {
				v := int64(*ev.Slot)
				slot = &v
			}
			rows = append(rows, row{bucket: bucket.name, body: data, kind: string(ev.Kind()), tx: ev.TxHash, slot: slot})
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO bundles (bundle_hash, address, created_utc, body, stored_at)
		VALUES ($1, $2, $3::timestamptz, $4, now())
		ON CONFLICT (bundle_hash) DO NOTHING
	`, hash, b.Address, b.CreatedUTC, body)
	if err != nil {
		return fmt.Errorf("insert bundle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	batch := &pgx.Batch{}
	for i, r := range rows {
		batch.Queue(`
			INSERT INTO bundle_events (bundle_hash, seq, bucket, kind, tx_hash, slot, body)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, hash, i, r.bucket, r.kind, r.tx, r.slot, r.body)
	}
	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert bundle events: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LatestBundle returns the newest archived bundle hash for address.
func (s *Store) LatestBundle(ctx context.Context, address string) (string, bool, error) {
	if address == "" {
		return "", false, fmt.Errorf("address required")
	}
	var hash string
	row := s.pool.QueryRow(ctx, `
		SELECT bundle_hash FROM bundles
		WHERE address=$1
		ORDER BY created_utc DESC, stored_at DESC
		LIMIT 1
	`, address)
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return hash, true, nil
}

// EventCount returns the number of archived event rows for a bundle.
func (s *Store) EventCount(ctx context.Context, hash string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM bundle_events WHERE bundle_hash=$1`, hash).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
