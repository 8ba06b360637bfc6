package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the transaction archive table if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS market_transactions (
			id            UUID PRIMARY KEY,
			run_id        UUID NOT NULL,
			ts            TIMESTAMPTZ NOT NULL,
			buyer         TEXT NOT NULL,
			seller        TEXT NOT NULL,
			item          TEXT NOT NULL,
			price         DOUBLE PRECISION NOT NULL,
			quantity      INT NOT NULL,
			flex_amount   DOUBLE PRECISION NOT NULL,
			is_donation   BOOLEAN NOT NULL,
			payment       TEXT NOT NULL,
			order_text    TEXT NOT NULL,
			response_text TEXT NOT NULL,
			match_type    TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
