package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/metrics"
	"github.com/memorybench/harness/provider"
)

func newDescribeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Print details of a registered provider or benchmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			h, err := bootstrap(flags)
			if err != nil {
				return err
			}
			if cfg, ok := h.benchmarks[name]; ok {
				describeBenchmark(h, name, cfg)
				return nil
			}
			if cfg, ok := h.providers[name]; ok {
				describeProvider(name, cfg)
				return nil
			}
			if provider.Registry.Has(name) {
				fmt.Printf("provider adapter %q is registered but has no config file in %q\n", name, flags.providersDir)
				return nil
			}
			if m, err := metrics.Registry.GetOrError(name); err == nil {
				fmt.Printf("metric %q: %s\n", m.Name(), m.Description())
				if aliases := m.Aliases(); len(aliases) > 0 {
					fmt.Printf("  aliases: %v\n", aliases)
				}
				return nil
			}
			return fmt.Errorf("%q is not a known benchmark, provider, or metric", name)
		},
	}
}

func describeBenchmark(h *harness, name string, cfg *config.BenchmarkConfig) {
	fmt.Printf("benchmark %q\n", name)
	if cfg.DisplayName != "" {
		fmt.Printf("  display name: %s\n", cfg.DisplayName)
	}
	fmt.Printf("  version:      %s\n", cfg.Version)
	fmt.Printf("  tags:         %v\n", cfg.Tags)
	fmt.Printf("  data source:  %s (%s, %s)\n", cfg.DataSource.Path, cfg.DataSource.Kind, cfg.DataSource.Format)
	fmt.Printf("  metrics:      %v\n", cfg.Metrics)
	if p, ok := h.packs.GetLatest(name); ok {
		fmt.Printf("  pack:         %s:%s (sealed: %v)\n", name, p.PackID(), p.SealedFacets())
	} else {
		fmt.Printf("  evaluation:   method=%q custom=%q\n", cfg.Evaluation.Method, cfg.Evaluation.CustomEvaluator)
	}
}

func describeProvider(name string, cfg *config.ProviderConfig) {
	fmt.Printf("provider %q\n", name)
	if cfg.DisplayName != "" {
		fmt.Printf("  display name: %s\n", cfg.DisplayName)
	}
	fmt.Printf("  kind:         %s\n", cfg.Kind)
	fmt.Printf("  capabilities: %+v\n", cfg.Capabilities)
	fmt.Printf("  rate limit:   %+v\n", cfg.RateLimit)
}
