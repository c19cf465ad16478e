package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/memorybench/harness/model"
)

// ExportDocument is the structured shape written by ExportJSON, mirroring
// the stored run plus its results so a downstream tool can reconstruct
// the whole run without re-querying the database.
type ExportDocument struct {
	Run     Run               `json:"run"`
	Results []model.EvalResult `json:"results"`
}

// ExportJSON renders a run and its results as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, runID string) ([]byte, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	results, err := s.ResultsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	doc := ExportDocument{Run: run, Results: results}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, newStoreError("ExportJSON", ErrCodeMarshalFailed, "marshal export document", err)
	}
	return data, nil
}

var csvColumns = []string{
	"run_id", "benchmark", "provider", "item_id", "question", "expected", "actual", "score", "correct",
}

// ExportCSV renders a run's results as CSV: one row per result, columns in
// csvColumns order. Fields are quoted and embedded quotes doubled per RFC
// 4180, handled by encoding/csv.
func (s *Store) ExportCSV(ctx context.Context, runID string) ([]byte, error) {
	results, err := s.ResultsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Benchmark != results[j].Benchmark {
			return results[i].Benchmark < results[j].Benchmark
		}
		if results[i].Provider != results[j].Provider {
			return results[i].Provider < results[j].Provider
		}
		return results[i].ItemID < results[j].ItemID
	})

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(csvColumns); err != nil {
		return nil, newStoreError("ExportCSV", ErrCodeMarshalFailed, "write csv header", err)
	}
	for _, r := range results {
		row := []string{
			r.RunID, r.Benchmark, r.Provider, r.ItemID, r.Question, r.Expected, r.Actual,
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			strconv.FormatBool(r.Correct),
		}
		if err := w.Write(row); err != nil {
			return nil, newStoreError("ExportCSV", ErrCodeMarshalFailed, fmt.Sprintf("write row for item %q", r.ItemID), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, newStoreError("ExportCSV", ErrCodeMarshalFailed, "flush csv writer", err)
	}
	return []byte(buf.String()), nil
}
