package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/evaluator"
	"github.com/memorybench/harness/llm"
	"github.com/memorybench/harness/llm/anthropicbackend"
	"github.com/memorybench/harness/llm/bedrockbackend"
	"github.com/memorybench/harness/llm/ollamabackend"
	"github.com/memorybench/harness/llm/openaibackend"
	"github.com/memorybench/harness/loader"
	"github.com/memorybench/harness/metrics"
	"github.com/memorybench/harness/pack"
	"github.com/memorybench/harness/provider"
	"github.com/memorybench/harness/provider/inmemoryprovider"
	"github.com/memorybench/harness/provider/redisprovider"
)

// harness bundles the registries and loaded configs a CLI invocation needs.
// Every registry is populated once at startup (registerDefaults) and treated
// as read-only afterward.
type harness struct {
	packs      *pack.Registry
	benchmarks map[string]*config.BenchmarkConfig
	providers  map[string]*config.ProviderConfig
}

// bootstrap registers every built-in loader/evaluator/pack/provider/llm
// backend/metric, loads benchmark and provider configs from disk, and
// validates sealed semantics before a config is accepted.
func bootstrap(flags *globalFlags) (*harness, error) {
	strict := flags.strictRegistries

	if err := loader.Register(loader.NewSchemaLoader(), strict); err != nil {
		return nil, fmt.Errorf("register schema loader: %w", err)
	}
	if err := loader.Register(loader.NewCodeRepoLoader(), strict); err != nil {
		return nil, fmt.Errorf("register code repo loader: %w", err)
	}

	if err := evaluator.Register(evaluator.NewExactMatchEvaluator(), strict); err != nil {
		return nil, fmt.Errorf("register exact match evaluator: %w", err)
	}
	if err := evaluator.Register(evaluator.NewLLMJudgeEvaluator(), strict); err != nil {
		return nil, fmt.Errorf("register llm judge evaluator: %w", err)
	}
	if err := evaluator.Register(evaluator.NewLoCoMoQAEvaluator(), strict); err != nil {
		return nil, fmt.Errorf("register locomo qa evaluator: %w", err)
	}

	packs := pack.NewRegistry()
	if err := packs.Register(pack.NewLongMemEvalPack(flags.judgeModel)); err != nil {
		return nil, fmt.Errorf("register longmemeval pack: %w", err)
	}
	if err := packs.Register(pack.NewLoCoMoPack()); err != nil {
		return nil, fmt.Errorf("register locomo pack: %w", err)
	}
	for _, p := range pack.NewCodeRetrievalPacks() {
		if err := packs.Register(p); err != nil {
			return nil, fmt.Errorf("register code retrieval pack %q: %w", p.BenchmarkName(), err)
		}
	}

	if err := provider.Register(inmemoryprovider.New(), strict); err != nil {
		return nil, fmt.Errorf("register inmemory provider: %w", err)
	}
	if flags.redisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: flags.redisAddr})
		if err := provider.Register(redisprovider.New(client), strict); err != nil {
			return nil, fmt.Errorf("register redis provider: %w", err)
		}
	}

	registerLLMBackends(flags, strict)

	if err := metrics.RegisterDefaults(strict); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	benchmarks, err := loadBenchmarkConfigs(flags.benchmarksDir, packs)
	if err != nil {
		return nil, err
	}
	providers, err := loadProviderConfigs(flags.providersDir)
	if err != nil {
		return nil, err
	}

	return &harness{packs: packs, benchmarks: benchmarks, providers: providers}, nil
}

// registerLLMBackends wires the anthropic/openai/bedrock backends when their
// credentials are present in the environment and wires ollama whenever
// --ollama-host is non-empty, as it is by default (it needs no credential,
// only a reachable host), so `eval` works against
// whichever model providers the operator has configured without demanding
// all four.
func registerLLMBackends(flags *globalFlags, strict bool) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		_ = llm.RegisterBackend(anthropicbackend.New(key, os.Getenv("ANTHROPIC_BASE_URL")), strict)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		_ = llm.RegisterBackend(openaibackend.New(key, os.Getenv("OPENAI_BASE_URL")), strict)
	}
	if flags.ollamaHost != "" {
		if backend, err := ollamabackend.New(flags.ollamaHost); err == nil {
			_ = llm.RegisterBackend(backend, strict)
		}
	}
	if flags.bedrockRegion != "" || os.Getenv("AWS_REGION") != "" || os.Getenv("AWS_PROFILE") != "" {
		if backend, err := bedrockbackend.New(context.Background(), flags.bedrockRegion); err == nil {
			_ = llm.RegisterBackend(backend, strict)
		}
	}
}

// loadBenchmarkConfigs reads every *.yaml/*.yml file in dir, keyed by each
// config's own Name field, validating sealed semantics against a registered
// pack (if any) before accepting it.
func loadBenchmarkConfigs(dir string, packs *pack.Registry) (map[string]*config.BenchmarkConfig, error) {
	out := make(map[string]*config.BenchmarkConfig)
	paths, err := yamlFiles(dir)
	if err != nil {
		return out, nil // an unset/missing configs dir is not fatal; list/eval report empty
	}
	for _, path := range paths {
		cfg, err := config.LoadBenchmarkConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load benchmark config %q: %w", path, err)
		}
		if p, ok := packs.GetLatest(cfg.Name); ok {
			if violations := config.ValidateSealedSemantics(cfg, p); len(violations) > 0 {
				return nil, fmt.Errorf("benchmark %q: %w", cfg.Name, violations)
			}
		}
		out[cfg.Name] = cfg
	}
	return out, nil
}

// loadProviderConfigs reads every *.yaml/*.yml file in dir, keyed by each
// config's own Name field.
func loadProviderConfigs(dir string) (map[string]*config.ProviderConfig, error) {
	out := make(map[string]*config.ProviderConfig)
	paths, err := yamlFiles(dir)
	if err != nil {
		return out, nil
	}
	for _, path := range paths {
		cfg, err := config.LoadProviderConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load provider config %q: %w", path, err)
		}
		out[cfg.Name] = cfg
	}
	return out, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
