// Package config defines the BenchmarkConfig and ProviderConfig shapes
// (spec §3), loads them from YAML with environment interpolation, and
// implements the sealed-semantics validator (spec §4.5, §7) that rejects a
// config overriding a facet a benchmark pack declares as its own. Loading is
// grounded on pkg/config/viper_provider.go; validation is grounded on
// pkg/config/internal/validation/validator.go's all-violations-at-once style.
package config

import "strings"

// DataFormat is the on-disk shape of a benchmark's raw records.
type DataFormat string

const (
	FormatTabular             DataFormat = "tabular"
	FormatLineDelimited       DataFormat = "line-delimited-records"
	FormatRecordArray         DataFormat = "record-array"
)

// SourceKind identifies where a benchmark's raw data lives.
type SourceKind string

const (
	SourceLocal          SourceKind = "local"
	SourceRemoteRegistry SourceKind = "remote-registry"
	SourceURL            SourceKind = "url"
)

// ContextKind is the shape schema.context.type takes in the raw record.
type ContextKind string

const (
	ContextArray  ContextKind = "array"
	ContextObject ContextKind = "object"
	ContextString ContextKind = "string"
)

// DataSource describes where and in what format a benchmark's raw data is
// stored.
type DataSource struct {
	Kind   SourceKind `mapstructure:"kind" yaml:"kind" validate:"required,oneof=local remote-registry url"`
	Path   string     `mapstructure:"path" yaml:"path"`
	Format DataFormat `mapstructure:"format" yaml:"format" validate:"required,oneof=tabular line-delimited-records record-array"`
}

// FieldMap maps raw-record fields (dot/JSONPath-style accessors) to the
// normalized BenchmarkItem fields.
type FieldMap struct {
	ID        string            `mapstructure:"id" yaml:"id" validate:"required"`
	Question  string            `mapstructure:"question" yaml:"question" validate:"required"`
	Answer    string            `mapstructure:"answer" yaml:"answer"`
	Questions string            `mapstructure:"questions" yaml:"questions"` // path to nested questions array, if any
	Metadata  map[string]string `mapstructure:"metadata" yaml:"metadata"`
}

// ContextSchema describes how to pull ingestible contexts out of a raw
// record.
type ContextSchema struct {
	Type           ContextKind `mapstructure:"type" yaml:"type" validate:"required,oneof=array object string"`
	Field          string      `mapstructure:"field" yaml:"field"`
	ItemSchema     string      `mapstructure:"item_schema" yaml:"item_schema"`
	SessionPattern string      `mapstructure:"session_pattern" yaml:"session_pattern"`
	DateField      string      `mapstructure:"date_field" yaml:"date_field"`
}

// Schema is the full raw-record -> BenchmarkItem mapping.
type Schema struct {
	Fields  FieldMap      `mapstructure:"fields" yaml:"fields"`
	Context ContextSchema `mapstructure:"context" yaml:"context"`
}

// IngestionDirectives control how contexts are batched during the Runner's
// INGEST phase.
type IngestionDirectives struct {
	BatchSize       int    `mapstructure:"batch_size" yaml:"batch_size"`
	InterBatchDelayMs int  `mapstructure:"inter_batch_delay_ms" yaml:"inter_batch_delay_ms"`
	FormatTemplate  string `mapstructure:"format_template" yaml:"format_template"`
}

// SearchDefaults control how the Runner calls provider.searchQuery.
type SearchDefaults struct {
	TopK                 int     `mapstructure:"top_k" yaml:"top_k" validate:"gte=0"`
	SimilarityThreshold  float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	IncludeChunks        bool    `mapstructure:"include_chunks" yaml:"include_chunks"`
}

// EvaluationDirectives name how an item is scored once results come back.
// Method/AnswerPromptTemplate/JudgePromptTemplate/CustomEvaluator are the
// fields a sealed pack may forbid overriding (spec §4.5).
type EvaluationDirectives struct {
	Method               string `mapstructure:"method" yaml:"method"`
	AnsweringModel       string `mapstructure:"answering_model" yaml:"answering_model"`
	AnswerPromptTemplate string `mapstructure:"answer_prompt_template" yaml:"answer_prompt_template"`
	JudgeModel           string `mapstructure:"judge_model" yaml:"judge_model"`
	JudgePromptTemplate  string `mapstructure:"judge_prompt_template" yaml:"judge_prompt_template"`
	CustomEvaluator      string `mapstructure:"custom_evaluator" yaml:"custom_evaluator"`
}

// RuntimeDirectives are knobs affecting how a run is checkpointed.
type RuntimeDirectives struct {
	CheckpointGranularity string `mapstructure:"checkpoint_granularity" yaml:"checkpoint_granularity"` // item|batch
	Resumable             bool   `mapstructure:"resumable" yaml:"resumable"`
}

// BenchmarkConfig is the full identity + behavior description of one
// benchmark (spec §3).
type BenchmarkConfig struct {
	Name          string              `mapstructure:"name" yaml:"name" validate:"required"`
	DisplayName   string              `mapstructure:"display_name" yaml:"display_name"`
	Version       string              `mapstructure:"version" yaml:"version"`
	Tags          []string            `mapstructure:"tags" yaml:"tags"`
	DataSource    DataSource          `mapstructure:"data_source" yaml:"data_source"`
	Schema        Schema              `mapstructure:"schema" yaml:"schema"`
	QuestionTypes []string            `mapstructure:"question_types" yaml:"question_types"`
	Categories    map[int]string      `mapstructure:"categories" yaml:"categories"`
	Ingestion     IngestionDirectives `mapstructure:"ingestion" yaml:"ingestion"`
	Search        SearchDefaults      `mapstructure:"search" yaml:"search"`
	Evaluation    EvaluationDirectives `mapstructure:"evaluation" yaml:"evaluation"`
	Metrics       []string            `mapstructure:"metrics" yaml:"metrics"`
	Runtime       RuntimeDirectives   `mapstructure:"runtime" yaml:"runtime"`
}

// ProviderKind selects which variant of ProviderConfig is populated.
type ProviderKind string

const (
	ProviderHosted        ProviderKind = "hosted"
	ProviderLocal         ProviderKind = "local"
	ProviderContainerized ProviderKind = "containerized"
)

// HostedConfig describes an HTTP-reachable provider.
type HostedConfig struct {
	ConnectionURL string            `mapstructure:"connection_url" yaml:"connection_url"`
	AuthHeader    string            `mapstructure:"auth_header" yaml:"auth_header"`
	AuthToken     string            `mapstructure:"auth_token" yaml:"auth_token"`
	AddPath       string            `mapstructure:"add_path" yaml:"add_path"`
	SearchPath    string            `mapstructure:"search_path" yaml:"search_path"`
	ClearPath     string            `mapstructure:"clear_path" yaml:"clear_path"`
	Extra         map[string]string `mapstructure:"extra" yaml:"extra"`
}

// LocalConfig selects an in-process adapter by its provider-registry name.
type LocalConfig struct {
	AdapterName string            `mapstructure:"adapter_name" yaml:"adapter_name" validate:"required_if=Kind local"`
	Options     map[string]string `mapstructure:"options" yaml:"options"`
}

// ContainerizedConfig describes a Docker Compose-managed provider.
type ContainerizedConfig struct {
	ComposeManifest string `mapstructure:"compose_manifest" yaml:"compose_manifest"`
	Service         string `mapstructure:"service" yaml:"service"`
	Healthcheck     string `mapstructure:"healthcheck" yaml:"healthcheck"`
}

// Capabilities are flags a provider declares it supports. They are loaded
// with the provider config; the Runner does not read them.
type Capabilities struct {
	SupportsChunks   bool `mapstructure:"supports_chunks" yaml:"supports_chunks"`
	SupportsBatch    bool `mapstructure:"supports_batch" yaml:"supports_batch"`
	SupportsMetadata bool `mapstructure:"supports_metadata" yaml:"supports_metadata"`
	SupportsRerank   bool `mapstructure:"supports_rerank" yaml:"supports_rerank"`
}

// RateLimit bounds outbound calls to a provider.
type RateLimit struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size"`
}

// ProviderConfig is the identity + connection description of one provider
// under test (spec §3).
type ProviderConfig struct {
	Name         string              `mapstructure:"name" yaml:"name" validate:"required"`
	DisplayName  string              `mapstructure:"display_name" yaml:"display_name"`
	Kind         ProviderKind        `mapstructure:"kind" yaml:"kind" validate:"required,oneof=hosted local containerized"`
	Hosted       HostedConfig        `mapstructure:"hosted" yaml:"hosted"`
	Local        LocalConfig         `mapstructure:"local" yaml:"local"`
	Containerized ContainerizedConfig `mapstructure:"containerized" yaml:"containerized"`
	ScopingPolicy string             `mapstructure:"scoping_policy" yaml:"scoping_policy"` // template, e.g. "{benchmark}-{runId}"
	Capabilities  Capabilities        `mapstructure:"capabilities" yaml:"capabilities"`
	RateLimit     RateLimit           `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RunTag derives the scoping key a provider sees for one (benchmark, runId)
// pair, per the configured ScopingPolicy template. "{benchmark}" and
// "{runId}" are the only substitutions; an empty policy defaults to
// "{benchmark}-{runId}".
func (p ProviderConfig) RunTag(benchmark, runID string) string {
	policy := p.ScopingPolicy
	if policy == "" {
		policy = "{benchmark}-{runId}"
	}
	r := strings.NewReplacer("{benchmark}", benchmark, "{runId}", runID)
	return r.Replace(policy)
}
