package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// schema is applied idempotently at startup. The vector extension backs
// similarity lookup over stored fact embeddings.
const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS runs (
	id UUID PRIMARY KEY,
	docs_path TEXT NOT NULL,
	dialogs_path TEXT NOT NULL,
	record_count INT NOT NULL,
	skipped_count INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS conflict_records (
	id UUID NOT NULL,
	run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	dialog_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	fact_text TEXT NOT NULL,
	fact_timestamp TIMESTAMPTZ,
	memory_text TEXT NOT NULL DEFAULT '',
	memory_timestamp TIMESTAMPTZ,
	reliability DOUBLE PRECISION NOT NULL,
	question TEXT NOT NULL DEFAULT '',
	ground_truth TEXT NOT NULL,
	scenario TEXT NOT NULL,
	embedding vector(1536),
	PRIMARY KEY (run_id, id)
);

CREATE TABLE IF NOT EXISTS predictions (
	run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	record_id UUID NOT NULL,
	dialog_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	policy TEXT NOT NULL,
	chosen_source TEXT NOT NULL,
	answer TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	ground_truth TEXT NOT NULL,
	scenario TEXT NOT NULL,
	exact_match BOOLEAN NOT NULL,
	stale BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, record_id, policy)
);

CREATE TABLE IF NOT EXISTS summaries (
	run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	policy TEXT NOT NULL,
	scenario TEXT NOT NULL,
	n INT NOT NULL,
	exact_match_rate DOUBLE PRECISION NOT NULL,
	stale_rate DOUBLE PRECISION NOT NULL,
	abstention_rate DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, policy, scenario)
);
`

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
