package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/memorybench/harness/model"
)

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func unmarshalJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// UpsertResult writes one EvalResult, inserting it or overwriting the
// existing row for the same (run_id, benchmark, provider, item_id) tuple,
// per spec §3's upsert-on-retry invariant.
func (s *Store) UpsertResult(ctx context.Context, r model.EvalResult) error {
	return s.upsertResultTx(ctx, s.db, r)
}

// UpsertResults writes every result in one transaction, rolling back the
// whole batch if any row fails to write.
func (s *Store) UpsertResults(ctx context.Context, results []model.EvalResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newStoreError("UpsertResults", ErrCodeQueryFailed, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range results {
		if err := s.upsertResultTx(ctx, tx, r); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return newStoreError("UpsertResults", ErrCodeQueryFailed, "commit transaction", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) upsertResultTx(ctx context.Context, exec execer, r model.EvalResult) error {
	retrievedJSON, err := marshalJSON(r.RetrievedContext)
	if err != nil {
		return newStoreError("UpsertResult", ErrCodeMarshalFailed, "marshal retrieved_context", err)
	}
	metadataJSON, err := marshalJSON(r.Metadata)
	if err != nil {
		return newStoreError("UpsertResult", ErrCodeMarshalFailed, "marshal metadata", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO results
			(run_id, benchmark, provider, item_id, question, expected, actual, score, correct, retrieved_context, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (run_id, benchmark, provider, item_id) DO UPDATE SET
			question = EXCLUDED.question,
			expected = EXCLUDED.expected,
			actual = EXCLUDED.actual,
			score = EXCLUDED.score,
			correct = EXCLUDED.correct,
			retrieved_context = EXCLUDED.retrieved_context,
			metadata = EXCLUDED.metadata`,
		r.RunID, r.Benchmark, r.Provider, r.ItemID, r.Question, r.Expected, r.Actual,
		r.Score, r.Correct, retrievedJSON, metadataJSON)
	if err != nil {
		return newStoreError("UpsertResult", ErrCodeQueryFailed, "upsert result", err)
	}
	return nil
}

const resultColumns = `run_id, benchmark, provider, item_id, question, expected, actual, score, correct, retrieved_context, metadata, created_at`

func scanResult(row rowScanner) (model.EvalResult, error) {
	var r model.EvalResult
	var retrievedJSON, metadataJSON []byte
	if err := row.Scan(&r.RunID, &r.Benchmark, &r.Provider, &r.ItemID, &r.Question, &r.Expected, &r.Actual,
		&r.Score, &r.Correct, &retrievedJSON, &metadataJSON, &r.CreatedAt); err != nil {
		return model.EvalResult{}, err
	}
	if err := unmarshalJSON(retrievedJSON, &r.RetrievedContext); err != nil {
		return model.EvalResult{}, err
	}
	if err := unmarshalJSON(metadataJSON, &r.Metadata); err != nil {
		return model.EvalResult{}, err
	}
	return r, nil
}

// ResultsForRun returns every result row belonging to runID, ordered by
// (benchmark, provider, item_id) for deterministic output.
func (s *Store) ResultsForRun(ctx context.Context, runID string) ([]model.EvalResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+resultColumns+` FROM results
		WHERE run_id = $1
		ORDER BY benchmark, provider, item_id`, runID)
	if err != nil {
		return nil, newStoreError("ResultsForRun", ErrCodeQueryFailed, "query results", err)
	}
	defer rows.Close()

	var out []model.EvalResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, newStoreError("ResultsForRun", ErrCodeQueryFailed, "scan result", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResultsForPair returns every result row for one (benchmark, provider)
// pair within a run.
func (s *Store) ResultsForPair(ctx context.Context, runID, benchmark, provider string) ([]model.EvalResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+resultColumns+` FROM results
		WHERE run_id = $1 AND benchmark = $2 AND provider = $3
		ORDER BY item_id`, runID, benchmark, provider)
	if err != nil {
		return nil, newStoreError("ResultsForPair", ErrCodeQueryFailed, "query results", err)
	}
	defer rows.Close()

	var out []model.EvalResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, newStoreError("ResultsForPair", ErrCodeQueryFailed, "scan result", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
