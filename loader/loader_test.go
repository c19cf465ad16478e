package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSchemaLoader_LineDelimited_FlatQuestion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.jsonl", `{"id":"1","question":"what?","answer":"this","haystack":[{"text":"ctx one"},{"text":"ctx two"}]}`+"\n")

	cfg := &config.BenchmarkConfig{
		Name: "demo",
		DataSource: config.DataSource{Path: path, Format: config.FormatLineDelimited},
		Schema: config.Schema{
			Fields: config.FieldMap{ID: "id", Question: "question", Answer: "answer"},
			Context: config.ContextSchema{Type: config.ContextArray, Field: "haystack", ItemSchema: "text"},
		},
	}

	l := NewSchemaLoader()
	items, err := l.Load(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "what?", items[0].Question)
	require.Len(t, items[0].Contexts, 2)
	assert.Equal(t, "ctx one", items[0].Contexts[0].Content)
}

func TestSchemaLoader_NestedQuestions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.json", `[{"id":"conv-1","sessions":"ignored","questions":[{"question":"q1","answer":"a1","question_type":"single-hop"},{"question":"q2","answer":"a2","question_type":"multi-hop"}]}]`)

	cfg := &config.BenchmarkConfig{
		Name: "demo",
		DataSource: config.DataSource{Path: path, Format: config.FormatRecordArray},
		Schema: config.Schema{
			Fields: config.FieldMap{ID: "id", Questions: "questions"},
		},
	}

	l := NewSchemaLoader()
	items, err := l.Load(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "conv-1-q0", items[0].ID)
	assert.Equal(t, "single-hop", items[0].QuestionType)
	assert.Equal(t, "conv-1-q1", items[1].ID)
}

func TestSchemaLoader_Tabular(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", "id,question,answer\n1,what?,this\n2,who?,that\n")

	cfg := &config.BenchmarkConfig{
		Name:       "demo",
		DataSource: config.DataSource{Path: path, Format: config.FormatTabular},
		Schema:     config.Schema{Fields: config.FieldMap{ID: "id", Question: "question", Answer: "answer"}},
	}

	l := NewSchemaLoader()
	items, err := l.Load(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "what?", items[0].Question)
	assert.Equal(t, "that", items[1].Answer)
}

func TestApply_FiltersInOrder(t *testing.T) {
	items := []model.BenchmarkItem{
		{ID: "1", QuestionType: "a"},
		{ID: "2", QuestionType: "b"},
		{ID: "3", QuestionType: "a"},
		{ID: "4", QuestionType: "a"},
	}
	out := Apply(items, Filters{QuestionType: "a", Limit: 2})
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "3", out[1].ID)
}

func TestApply_StartEndSlicing(t *testing.T) {
	items := []model.BenchmarkItem{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	out := Apply(items, Filters{Start: 2, End: 3})
	require.Len(t, out, 2)
	assert.Equal(t, "2", out[0].ID)
	assert.Equal(t, "3", out[1].ID)
}

func TestCodeRepoLoader_WalksRepoAndManifest(t *testing.T) {
	dir := t.TempDir()
	repoDir := filepath.Join(dir, "repo")
	require.NoError(t, os.MkdirAll(repoDir, 0o755))
	writeFile(t, repoDir, "main.go", "package main\n")
	writeFile(t, repoDir, "README.md", "# hi\n")

	manifest := writeFile(t, dir, "queries.json", `[{"id":"q1","query":"where is main?","relevant_files":["main.go"]}]`)

	cfg := &config.BenchmarkConfig{
		Name:       "code-bench",
		DataSource: config.DataSource{Path: manifest},
		Schema:     config.Schema{Context: config.ContextSchema{Field: repoDir}},
	}

	l := NewCodeRepoLoader(".go")
	items, err := l.Load(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, items[0].Contexts, 1)
	assert.Equal(t, "main.go", items[0].Contexts[0].ID)
}
