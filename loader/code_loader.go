package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
)

// CodeRepoLoader loads a code-retrieval benchmark whose items reference
// whole source files by path rather than the
// question/answer/context schema generic benchmarks use. It bypasses
// SchemaLoader's mapping entirely. The Runner uses it for a benchmark whose
// name is its registry key, "code_repo"; that benchmark's data_source points
// at a query manifest and its schema.context.field names the repository root.
//
// Grounded on pkg/documentloaders/providers/directory/loader.go's recursive
// walk-and-filter-by-extension shape, simplified to synchronous (a
// benchmark's repository snapshot is read once at ingest time, not on the
// Runner's hot path) and with one structural difference from the directory
// loader: each repository file becomes the *context pool* shared by every
// query, not the unit of retrieval output itself.
type CodeRepoLoader struct {
	extensions []string
}

// NewCodeRepoLoader returns a CodeRepoLoader restricted to the given file
// extensions (e.g. ".go", ".py"); an empty list loads every regular file.
func NewCodeRepoLoader(extensions ...string) *CodeRepoLoader {
	return &CodeRepoLoader{extensions: extensions}
}

func (l *CodeRepoLoader) Name() string { return "code_repo" }

// codeQuery is one row of a code-retrieval benchmark's manifest file: a
// natural-language query plus the file path(s) that answer it; line spans
// are not part of the manifest.
type codeQuery struct {
	ID           string   `json:"id"`
	Query        string   `json:"query"`
	Answer       string   `json:"answer"`
	RelevantFiles []string `json:"relevant_files"`
	QuestionType string   `json:"question_type"`
}

func (l *CodeRepoLoader) Load(ctx context.Context, cfg *config.BenchmarkConfig) ([]model.BenchmarkItem, error) {
	manifestPath := cfg.DataSource.Path
	repoRoot := cfg.Schema.Context.Field // repurposed: the repository root to walk
	if repoRoot == "" {
		return nil, newLoaderError("Load", ErrCodeInvalidConfig, manifestPath, "schema.context.field must name the repository root", nil)
	}

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, newLoaderError("Load", ErrCodeIOError, manifestPath, "", err)
	}
	var queries []codeQuery
	if err := json.Unmarshal(raw, &queries); err != nil {
		return nil, newLoaderError("Load", ErrCodeParseFailed, manifestPath, "", err)
	}

	contexts, err := l.walkRepo(ctx, repoRoot)
	if err != nil {
		return nil, err
	}

	items := make([]model.BenchmarkItem, 0, len(queries))
	for i, q := range queries {
		id := q.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", cfg.Name, i)
		}
		items = append(items, model.BenchmarkItem{
			ID:           id,
			Question:     q.Query,
			Answer:       q.Answer,
			Contexts:     contexts,
			QuestionType: q.QuestionType,
			Metadata: map[string]any{
				"relevant_files": q.RelevantFiles,
			},
		})
	}
	return items, nil
}

func (l *CodeRepoLoader) walkRepo(ctx context.Context, root string) ([]model.PreparedData, error) {
	var out []model.PreparedData
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if !l.matchesExtension(path) {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return newLoaderError("walkRepo", ErrCodeIOError, path, "", err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		out = append(out, model.PreparedData{
			ID:      filepath.ToSlash(rel),
			Content: string(content),
			Metadata: map[string]any{
				"path": filepath.ToSlash(rel),
			},
		})
		return nil
	})
	if err != nil {
		return nil, newLoaderError("walkRepo", ErrCodeIOError, root, "directory walk failed", err)
	}
	return out, nil
}

func (l *CodeRepoLoader) matchesExtension(path string) bool {
	if len(l.extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, allowed := range l.extensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}
