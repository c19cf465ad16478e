// Command membench is the CLI entrypoint over the benchmark harness core.
// It is deliberately thin: argument parsing and plain tabular printing
// only, with every substantive operation delegated to the
// config/runner/store/metrics packages.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
