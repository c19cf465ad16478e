// Package store implements the append-only relational results store (spec
// §4.8): a runs table plus a results table with JSONB columns for the
// retrieved-context and metadata blobs, unique-indexed on (run_id,
// benchmark, provider, item_id) to give retries upsert semantics. Grounded
// on pkg/vectorstores/providers/pgvector/pgvector_store.go's
// sql.Open/ensure-schema/prepared-statement style, generalized from vector
// similarity search to plain relational CRUD since results rows carry no
// embedding.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Run is one invocation of the harness across a chosen set of (benchmark,
// provider) pairs (spec §3's "runs" table).
type Run struct {
	ID          string
	StartedAt   time.Time
	CompletedAt *time.Time
	Benchmarks  []string
	Providers   []string
	Config      map[string]any
}

// Store is a Postgres-backed results store. The zero value is not usable;
// construct with Open.
type Store struct {
	db *sql.DB
}

// Open connects to connStr and ensures the runs/results schema exists.
func Open(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, newStoreError("Open", ErrCodeConnectionFailed, "failed to open connection", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, newStoreError("Open", ErrCodeConnectionFailed, "failed to ping database", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// FromDB wraps an already-open *sql.DB (e.g. one a test points at a
// disposable schema), ensuring the runs/results tables exist.
func FromDB(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	benchmarks JSONB NOT NULL DEFAULT '[]',
	providers JSONB NOT NULL DEFAULT '[]',
	config JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS results (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(id),
	benchmark TEXT NOT NULL,
	provider TEXT NOT NULL,
	item_id TEXT NOT NULL,
	question TEXT NOT NULL DEFAULT '',
	expected TEXT NOT NULL DEFAULT '',
	actual TEXT NOT NULL DEFAULT '',
	score DOUBLE PRECISION NOT NULL DEFAULT 0,
	correct BOOLEAN NOT NULL DEFAULT FALSE,
	retrieved_context JSONB NOT NULL DEFAULT '[]',
	metadata JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS results_run_id_idx ON results (run_id);
CREATE INDEX IF NOT EXISTS results_benchmark_idx ON results (benchmark);
CREATE INDEX IF NOT EXISTS results_provider_idx ON results (provider);
CREATE UNIQUE INDEX IF NOT EXISTS results_pair_item_uidx
	ON results (run_id, benchmark, provider, item_id);
`

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return newStoreError("ensureSchema", ErrCodeSchemaFailed, "failed to create runs/results tables", err)
	}
	return nil
}

// CreateRun inserts a new run row, failing if id is already in use.
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	benchmarksJSON, err := marshalJSON(run.Benchmarks)
	if err != nil {
		return newStoreError("CreateRun", ErrCodeMarshalFailed, "marshal benchmarks", err)
	}
	providersJSON, err := marshalJSON(run.Providers)
	if err != nil {
		return newStoreError("CreateRun", ErrCodeMarshalFailed, "marshal providers", err)
	}
	configJSON, err := marshalJSON(run.Config)
	if err != nil {
		return newStoreError("CreateRun", ErrCodeMarshalFailed, "marshal config", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, benchmarks, providers, config)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.StartedAt, benchmarksJSON, providersJSON, configJSON)
	if err != nil {
		return newStoreError("CreateRun", ErrCodeQueryFailed, "insert run", err)
	}
	return nil
}

// CompleteRun stamps a run's completed_at timestamp.
func (s *Store) CompleteRun(ctx context.Context, runID string, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET completed_at = $2 WHERE id = $1`, runID, completedAt)
	if err != nil {
		return newStoreError("CompleteRun", ErrCodeQueryFailed, "update run", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return newStoreError("CompleteRun", ErrCodeQueryFailed, "rows affected", err)
	}
	if n == 0 {
		return newStoreError("CompleteRun", ErrCodeNotFound, fmt.Sprintf("run %q not found", runID), nil)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, completed_at, benchmarks, providers, config
		FROM runs WHERE id = $1`, runID)
	run, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, newStoreError("GetRun", ErrCodeNotFound, fmt.Sprintf("run %q not found", runID), nil)
		}
		return Run{}, newStoreError("GetRun", ErrCodeQueryFailed, "scan run", err)
	}
	return run, nil
}

// ListRuns returns runs ordered most-recent-first, paginated by
// limit/offset.
func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, completed_at, benchmarks, providers, config
		FROM runs ORDER BY started_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, newStoreError("ListRuns", ErrCodeQueryFailed, "query runs", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, newStoreError("ListRuns", ErrCodeQueryFailed, "scan run", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var completedAt sql.NullTime
	var benchmarksJSON, providersJSON, configJSON []byte
	if err := row.Scan(&run.ID, &run.StartedAt, &completedAt, &benchmarksJSON, &providersJSON, &configJSON); err != nil {
		return Run{}, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if err := unmarshalJSON(benchmarksJSON, &run.Benchmarks); err != nil {
		return Run{}, err
	}
	if err := unmarshalJSON(providersJSON, &run.Providers); err != nil {
		return Run{}, err
	}
	if err := unmarshalJSON(configJSON, &run.Config); err != nil {
		return Run{}, err
	}
	return run, nil
}
