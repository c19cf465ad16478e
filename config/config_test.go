package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInterpolateEnv_DefaultAndLookup(t *testing.T) {
	t.Setenv("MEMBENCH_TEST_HOST", "db.internal")
	raw := []byte("host: ${MEMBENCH_TEST_HOST}\nport: ${MEMBENCH_TEST_PORT:-5432}\ntemplate: \"${question}\"\n")
	out := interpolateEnv(raw)
	assert.Contains(t, string(out), "host: db.internal")
	assert.Contains(t, string(out), "port: 5432")
	assert.Contains(t, string(out), `template: "${question}"`)
}

func TestLoadBenchmarkConfig_Valid(t *testing.T) {
	path := writeTemp(t, "bench.yaml", `
name: longmemeval
display_name: LongMemEval
data_source:
  kind: local
  path: ./data/longmemeval.jsonl
  format: line-delimited-records
schema:
  fields:
    id: id
    question: question
    answer: answer
  context:
    type: array
    field: haystack_sessions
search:
  top_k: 10
metrics:
  - accuracy
`)
	cfg, err := LoadBenchmarkConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "longmemeval", cfg.Name)
	assert.Equal(t, SourceLocal, cfg.DataSource.Kind)
	assert.Equal(t, FormatLineDelimited, cfg.DataSource.Format)
	assert.Equal(t, 10, cfg.Search.TopK)
}

func TestLoadBenchmarkConfig_MissingRequiredField(t *testing.T) {
	path := writeTemp(t, "bench.yaml", `
data_source:
  kind: local
  format: tabular
`)
	_, err := LoadBenchmarkConfig(path)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestProviderConfig_RunTag(t *testing.T) {
	p := ProviderConfig{ScopingPolicy: "{benchmark}-{runId}-scope"}
	assert.Equal(t, "locomo-run42-scope", p.RunTag("locomo", "run42"))

	def := ProviderConfig{}
	assert.Equal(t, "locomo-run42", def.RunTag("locomo", "run42"))
}

type fakeSealedPack struct {
	id     string
	sealed map[SealedFacet]bool
}

func (f fakeSealedPack) PackID() string                     { return f.id }
func (f fakeSealedPack) SealedFacets() map[SealedFacet]bool { return f.sealed }

func TestValidateSealedSemantics_CollectsAllViolations(t *testing.T) {
	cfg := &BenchmarkConfig{
		Evaluation: EvaluationDirectives{
			AnswerPromptTemplate: "custom prompt",
			JudgePromptTemplate:  "custom judge",
			CustomEvaluator:      "my-evaluator",
		},
	}
	p := fakeSealedPack{id: "longmemeval:v1", sealed: map[SealedFacet]bool{
		FacetAnswerPrompt: true,
		FacetJudgePrompt:  true,
		FacetScoring:      true,
	}}
	violations := ValidateSealedSemantics(cfg, p)
	assert.Len(t, violations, 3)
}

func TestValidateSealedSemantics_NoViolationsWhenUnsealed(t *testing.T) {
	cfg := &BenchmarkConfig{Evaluation: EvaluationDirectives{AnswerPromptTemplate: "x"}}
	p := fakeSealedPack{id: "locomo:v1", sealed: map[SealedFacet]bool{}}
	assert.Empty(t, ValidateSealedSemantics(cfg, p))
}
