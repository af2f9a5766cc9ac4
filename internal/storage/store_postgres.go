package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresKV keeps records in the kv_records table as JSONB.
type PostgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV creates a PostgreSQL-backed record store.
func NewPostgresKV(pool *pgxpool.Pool) (*PostgresKV, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresKV{pool: pool}, nil
}

func (s *PostgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value::text FROM kv_records WHERE key = $1`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get record %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("record key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO kv_records (key, value, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key,
		string(value),
	)
	if err != nil {
		return fmt.Errorf("set record %s: %w", key, err)
	}
	return nil
}

func (s *PostgresKV) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	return nil
}

func (s *PostgresKV) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
