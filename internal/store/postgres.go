// Package store persists completed Run records to Postgres, for
// deployments that want a durable history of engine runs alongside (or
// instead of) the JSON run-batch files internal/distio writes.
//
// Adapted from persisting heuristic/evidence rows to persisting Run
// records and their mappings.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

// Store wraps a pgx connection pool for Run persistence.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens and pings a connection pool against connStr.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("store: unable to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store: ping failed: %w", err)
	}
	log.Println("[store] connected to Postgres")
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema creates the runs table if it does not already exist.
func (s *Store) InitSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                         BIGSERIAL PRIMARY KEY,
	num_transactions           BIGINT NOT NULL,
	num_inputs_per_transaction BIGINT NOT NULL,
	in_coins                   JSONB NOT NULL,
	out_coins                  JSONB NOT NULL,
	partition_tuples           JSONB NOT NULL,
	duration_secs              BIGINT NOT NULL,
	duration_nano              INTEGER NOT NULL,
	created_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	log.Println("[store] schema initialized")
	return nil
}

// SaveRun persists one completed Run.
func (s *Store) SaveRun(ctx context.Context, run models.Run) error {
	inCoins, err := json.Marshal(run.InCoins)
	if err != nil {
		return fmt.Errorf("store: marshal in_coins: %w", err)
	}
	outCoins, err := json.Marshal(run.OutCoins)
	if err != nil {
		return fmt.Errorf("store: marshal out_coins: %w", err)
	}
	mappings, err := json.Marshal(run.PartitionTuples)
	if err != nil {
		return fmt.Errorf("store: marshal partition_tuples: %w", err)
	}

	const insert = `
INSERT INTO runs (num_transactions, num_inputs_per_transaction, in_coins, out_coins, partition_tuples, duration_secs, duration_nano)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	_, err = s.pool.Exec(ctx, insert,
		run.NumTransactions, run.NumInputsPerTransaction,
		inCoins, outCoins, mappings,
		run.DurationSecs, run.DurationNano,
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	return nil
}

// CountRuns returns the number of runs persisted so far.
func (s *Store) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: count runs: %w", err)
	}
	return count, nil
}
