package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/memorybench/harness/provider"
)

func providerRegistryKeys() []string {
	return provider.Registry.Keys()
}

// newTabWriter returns a tabwriter configured the same way across every
// subcommand's plain-tabular output. No pretty-printing beyond this.
func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printMetricsTable(title string, metrics map[string]float64) {
	fmt.Println(title)
	w := newTabWriter()
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.4f\n", name, metrics[name])
	}
	_ = w.Flush()
}
