package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCommand(flags *globalFlags) *cobra.Command {
	var showProviders, showBenchmarks bool
	var tags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered providers and/or benchmarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := bootstrap(flags)
			if err != nil {
				return err
			}
			if !showProviders && !showBenchmarks {
				showProviders, showBenchmarks = true, true
			}
			if showBenchmarks {
				printBenchmarkList(h, tags)
			}
			if showProviders {
				printProviderList(h)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showProviders, "providers", false, "list registered providers")
	cmd.Flags().BoolVar(&showBenchmarks, "benchmarks", false, "list registered benchmarks")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "filter benchmarks to those carrying all of these tags")

	return cmd
}

func printBenchmarkList(h *harness, tags []string) {
	names := sortedKeys(h.benchmarks)

	fmt.Println("BENCHMARKS")
	for _, name := range names {
		cfg := h.benchmarks[name]
		if len(tags) > 0 && !hasAllTags(cfg.Tags, tags) {
			continue
		}
		packInfo := ""
		if _, ok := h.packs.GetLatest(name); ok {
			packInfo = " [pack]"
		}
		fmt.Printf("  %-24s %s%s\n", name, strings.Join(cfg.Tags, ","), packInfo)
	}
}

func printProviderList(h *harness) {
	fmt.Println("PROVIDERS")
	for _, name := range providerRegistryKeys() {
		cfg, configured := h.providers[name]
		state := "adapter only"
		if configured {
			state = string(cfg.Kind)
		}
		fmt.Printf("  %-24s %s\n", name, state)
	}
}

func hasAllTags(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, t := range want {
		if !set[t] {
			return false
		}
	}
	return true
}
