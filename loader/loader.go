// Package loader turns a benchmark's raw records (JSON, JSONL, or CSV) into
// the normalized model.BenchmarkItem shape the Runner consumes, driven by
// the schema a BenchmarkConfig declares rather than per-benchmark Go code.
// Loader exposes a single Load(ctx) method; the schema-driven mapper's
// file handling follows the usual open, read, wrap-errors shape.
package loader

import (
	"context"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/registry"
)

// Loader produces BenchmarkItems for one benchmark from its configured data
// source.
type Loader interface {
	// Name returns the loader's registry key.
	Name() string

	// Load reads and maps cfg's data source into BenchmarkItems.
	Load(ctx context.Context, cfg *config.BenchmarkConfig) ([]model.BenchmarkItem, error)
}

// Registry holds the Loader implementations available to the Runner, keyed
// by loader name. The Runner uses the loader registered under a benchmark's
// name, falling back to "schema" (see SchemaLoader) when there is none.
var Registry = registry.New[Loader]("loaders")

// Register adds l under its own Name(), returning a registry.Error on a
// name collision.
func Register(l Loader, strict bool) error {
	return Registry.Register(l.Name(), l, strict)
}

// RawRecord is one decoded row of a benchmark's raw dataset before schema
// mapping, e.g. one parsed JSON object.
type RawRecord = map[string]any

// Filters narrows the BenchmarkItems returned by Apply, applied in a fixed
// order: question-type filter, then range slicing (Start and End are
// 1-indexed and inclusive; 0 leaves that end of the range open), then
// Limit. Order matters because Start/End are positional and should operate
// on the already-type-filtered set.
type Filters struct {
	QuestionType string
	Start        int
	End          int
	Limit        int
}

// Apply filters items per f's ordered rules, returning a new slice.
func Apply(items []model.BenchmarkItem, f Filters) []model.BenchmarkItem {
	out := items
	if f.QuestionType != "" {
		filtered := make([]model.BenchmarkItem, 0, len(out))
		for _, item := range out {
			if item.QuestionType == f.QuestionType {
				filtered = append(filtered, item)
			}
		}
		out = filtered
	}

	if f.Start > 0 || f.End > 0 {
		start := 0
		if f.Start > 0 {
			start = f.Start - 1
		}
		if start > len(out) {
			start = len(out)
		}
		end := f.End
		if end <= 0 || end > len(out) {
			end = len(out)
		}
		if start > end {
			start = end
		}
		out = out[start:end]
	}

	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}
