package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newDownloadCommand documents the `download` surface. Dataset download
// and on-disk caching are out of scope for the core: this command only
// reports that, rather than silently doing nothing, so the CLI's command
// set is complete without pretending the core fetches datasets itself.
func newDownloadCommand() *cobra.Command {
	var benchmarks []string
	var benchmark, taskType string
	var all bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download benchmark datasets (external collaborator, not implemented by the core)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("dataset download is an external collaborator's job: " +
				"place raw benchmark files where your benchmark config's data_source.path points, " +
				"membench does not fetch or cache them")
		},
	}

	cmd.Flags().StringSliceVar(&benchmarks, "benchmarks", nil, "benchmark names (documented surface, not implemented)")
	cmd.Flags().StringVar(&benchmark, "benchmark", "", "single benchmark name (documented surface, not implemented)")
	cmd.Flags().BoolVar(&all, "all", false, "download every benchmark (documented surface, not implemented)")
	cmd.Flags().StringVar(&taskType, "task-type", "all", "function|line|api|all (documented surface, not implemented)")

	return cmd
}
